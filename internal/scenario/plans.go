package scenario

import (
	"net/http"

	"parking_api_testing/internal/model"
)

// Plan is an ordered list of steps run top to bottom.
type Plan struct {
	Name  string
	Steps []model.Step
}

type Accounts struct {
	User  model.Credentials
	Admin model.Credentials
}

const (
	sectionAuth         = "📝 1. AUTHENTICATION ENDPOINTS"
	sectionProfile      = "👤 2. PROFILE ENDPOINTS"
	sectionParkingLots  = "🅿️ 3. PARKING LOTS ENDPOINTS"
	sectionVehicles     = "🚗 4. VEHICLES ENDPOINTS"
	sectionSessions     = "⏱️ 5. PARKING SESSIONS ENDPOINTS"
	sectionReservations = "📅 6. RESERVATIONS ENDPOINTS"
	sectionPayments     = "💳 7. PAYMENTS ENDPOINTS"
	sectionBilling      = "🧾 8. BILLING ENDPOINTS"
	sectionLogout       = "🔓 9. LOGOUT ENDPOINTS"
	sectionErrors       = "❌ 10. ERROR HANDLING TESTS"
)

func registerBody(c model.Credentials) map[string]any {
	return map[string]any{"username": c.Username, "password": c.Password, "name": c.Name}
}

func loginBody(c model.Credentials) map[string]any {
	return map[string]any{"username": c.Username, "password": c.Password}
}

func authSteps(acc Accounts) []model.Step {
	return []model.Step{
		{Section: sectionAuth, Method: http.MethodPost, Path: "/register", Description: "Register new user", Body: registerBody(acc.User)},
		{Section: sectionAuth, Method: http.MethodPost, Path: "/register", Description: "Register admin user", Body: registerBody(acc.Admin)},
		{Section: sectionAuth, Method: http.MethodPost, Path: "/login", Description: "Login user", Body: loginBody(acc.User), Capture: model.SlotUser},
		{Section: sectionAuth, Method: http.MethodPost, Path: "/login", Description: "Login admin", Body: loginBody(acc.Admin), Capture: model.SlotAdmin},
		{Section: sectionAuth, Method: http.MethodPost, Path: "/login", Description: "Login with wrong credentials", Body: map[string]any{"username": "wronguser", "password": "wrongpass"}},
	}
}

// Full is the exhaustive plan: every endpoint plus unauthorized and malformed requests.
func Full(acc Accounts) Plan {
	steps := authSteps(acc)
	steps = append(steps,
		model.Step{Section: sectionProfile, Method: http.MethodGet, Path: "/profile", Description: "Get user profile", Auth: model.SlotUser},
		model.Step{Section: sectionProfile, Method: http.MethodPut, Path: "/profile", Description: "Update user profile", Auth: model.SlotUser,
			Body: map[string]any{"name": "Updated Test User", "password": "newpassword123"}},
		model.Step{Section: sectionProfile, Method: http.MethodGet, Path: "/profile", Description: "Get profile without token"},

		model.Step{Section: sectionParkingLots, Method: http.MethodGet, Path: "/parking-lots/", Description: "Get all parking lots"},
		model.Step{Section: sectionParkingLots, Method: http.MethodGet, Path: "/parking-lots/1", Description: "Get parking lot by ID"},
		model.Step{Section: sectionParkingLots, Method: http.MethodPost, Path: "/parking-lots", Description: "Create parking lot (admin)", Auth: model.SlotAdmin,
			Body: map[string]any{"name": "Test Parking Lot", "location": "Test Street 123", "capacity": 100, "reserved": 0, "tariff": 2.50, "daytariff": 15.00}},
		model.Step{Section: sectionParkingLots, Method: http.MethodPut, Path: "/parking-lots/1", Description: "Update parking lot (admin)", Auth: model.SlotAdmin,
			Body: map[string]any{"name": "Updated Parking Lot", "location": "New Street 456", "capacity": 150, "reserved": 0, "tariff": 3.00, "daytariff": 20.00}},
		model.Step{Section: sectionParkingLots, Method: http.MethodPost, Path: "/parking-lots", Description: "Create parking lot (unauthorized)", Auth: model.SlotUser,
			Body: map[string]any{"name": "Unauthorized Parking", "capacity": 50}},
	)
	steps = append(steps, vehicleSteps("My Test Car")...)
	steps = append(steps, model.Step{Section: sectionVehicles, Method: http.MethodGet, Path: "/vehicles", Description: "Get vehicles without token"})
	steps = append(steps, sessionSteps()...)
	steps = append(steps, reservationSteps()...)
	steps = append(steps, paymentSteps()...)
	steps = append(steps, billingAndLogoutSteps(acc)...)
	steps = append(steps,
		model.Step{Section: sectionErrors, Method: http.MethodGet, Path: "/nonexistent", Description: "Non-existent endpoint"},
		model.Step{Section: sectionErrors, Method: http.MethodPost, Path: "/invalid", Description: "Invalid endpoint", Body: map[string]any{}},
		model.Step{Section: sectionErrors, Method: http.MethodPost, Path: "/register", Description: "Register with missing data", Body: map[string]any{"username": "test"}},
		model.Step{Section: sectionErrors, Method: http.MethodPost, Path: "/login", Description: "Login with missing password", Body: map[string]any{"username": "test"}},
	)
	return Plan{Name: "full", Steps: steps}
}

// Simple is the shorter smoke plan with fewer negative cases.
func Simple(acc Accounts) Plan {
	steps := authSteps(acc)
	steps = append(steps,
		model.Step{Section: sectionProfile, Method: http.MethodGet, Path: "/profile", Description: "Get user profile", Auth: model.SlotUser},
		model.Step{Section: sectionProfile, Method: http.MethodPut, Path: "/profile", Description: "Update user profile", Auth: model.SlotUser,
			Body: map[string]any{"name": "Updated User", "password": "newpass123"}},
		model.Step{Section: sectionProfile, Method: http.MethodGet, Path: "/profile", Description: "Get profile without token"},

		model.Step{Section: sectionParkingLots, Method: http.MethodGet, Path: "/parking-lots/", Description: "Get all parking lots"},
		model.Step{Section: sectionParkingLots, Method: http.MethodGet, Path: "/parking-lots/1", Description: "Get parking lot by ID"},
		model.Step{Section: sectionParkingLots, Method: http.MethodPost, Path: "/parking-lots", Description: "Create parking lot (admin)", Auth: model.SlotAdmin,
			Body: map[string]any{"name": "Test Parking", "location": "Test Street 123", "capacity": 100, "reserved": 0, "tariff": 2.50, "daytariff": 15.00}},
		model.Step{Section: sectionParkingLots, Method: http.MethodPut, Path: "/parking-lots/1", Description: "Update parking lot (admin)", Auth: model.SlotAdmin,
			Body: map[string]any{"name": "Updated Parking", "capacity": 150, "tariff": 3.00}},
	)
	steps = append(steps, vehicleSteps("My Car")...)
	steps = append(steps, model.Step{Section: sectionVehicles, Method: http.MethodGet, Path: "/vehicles", Description: "Get vehicles without token"})
	steps = append(steps, sessionSteps()...)
	steps = append(steps, reservationSteps()...)
	steps = append(steps, paymentSteps()...)
	steps = append(steps, billingAndLogoutSteps(acc)...)
	steps = append(steps,
		model.Step{Section: sectionErrors, Method: http.MethodGet, Path: "/nonexistent", Description: "Non-existent endpoint"},
		model.Step{Section: sectionErrors, Method: http.MethodPost, Path: "/register", Description: "Register with missing data", Body: map[string]any{"username": "test"}},
	)
	return Plan{Name: "simple", Steps: steps}
}

func vehicleSteps(carName string) []model.Step {
	return []model.Step{
		{Section: sectionVehicles, Method: http.MethodPost, Path: "/vehicles", Description: "Register vehicle", Auth: model.SlotUser,
			Body: map[string]any{"name": carName, "license_plate": "ABC-123"}},
		{Section: sectionVehicles, Method: http.MethodGet, Path: "/vehicles", Description: "Get my vehicles", Auth: model.SlotUser},
		{Section: sectionVehicles, Method: http.MethodPost, Path: "/vehicles/ABC123/entry", Description: "Vehicle entry", Auth: model.SlotUser,
			Body: map[string]any{"parkinglot": "1"}},
		{Section: sectionVehicles, Method: http.MethodPut, Path: "/vehicles/ABC123", Description: "Update vehicle", Auth: model.SlotUser,
			Body: map[string]any{"name": "My Updated Car"}},
		{Section: sectionVehicles, Method: http.MethodGet, Path: "/vehicles/ABC123/reservations", Description: "Get vehicle reservations", Auth: model.SlotUser},
		{Section: sectionVehicles, Method: http.MethodGet, Path: "/vehicles/ABC123/history", Description: "Get vehicle history", Auth: model.SlotUser},
	}
}

func sessionSteps() []model.Step {
	return []model.Step{
		{Section: sectionSessions, Method: http.MethodPost, Path: "/parking-lots/1/sessions/start", Description: "Start parking session", Auth: model.SlotUser,
			Body: map[string]any{"licenseplate": "TEST-123"}},
		{Section: sectionSessions, Method: http.MethodGet, Path: "/parking-lots/1/sessions", Description: "Get all sessions", Auth: model.SlotUser},
		{Section: sectionSessions, Method: http.MethodGet, Path: "/parking-lots/1/sessions/1", Description: "Get specific session", Auth: model.SlotUser},
		{Section: sectionSessions, Method: http.MethodPost, Path: "/parking-lots/1/sessions/stop", Description: "Stop parking session", Auth: model.SlotUser,
			Body: map[string]any{"licenseplate": "TEST-123"}},
	}
}

func reservationSteps() []model.Step {
	return []model.Step{
		{Section: sectionReservations, Method: http.MethodPost, Path: "/reservations", Description: "Create reservation", Auth: model.SlotUser,
			Body: map[string]any{"licenseplate": "RES-123", "startdate": "2025-01-20", "enddate": "2025-01-21", "parkinglot": "1"}},
		{Section: sectionReservations, Method: http.MethodGet, Path: "/reservations/1", Description: "Get reservation", Auth: model.SlotUser},
		{Section: sectionReservations, Method: http.MethodPut, Path: "/reservations/1", Description: "Update reservation", Auth: model.SlotUser,
			Body: map[string]any{"licenseplate": "RES-UPDATED", "startdate": "2025-01-20", "enddate": "2025-01-22", "parkinglot": "1"}},
		{Section: sectionReservations, Method: http.MethodDelete, Path: "/reservations/1", Description: "Delete reservation", Auth: model.SlotUser},
	}
}

func paymentSteps() []model.Step {
	return []model.Step{
		{Section: sectionPayments, Method: http.MethodPost, Path: "/payments", Description: "Create payment", Auth: model.SlotUser,
			Body: map[string]any{"transaction": "TRX-123", "amount": 25.50}},
		{Section: sectionPayments, Method: http.MethodGet, Path: "/payments", Description: "Get my payments", Auth: model.SlotUser},
		{Section: sectionPayments, Method: http.MethodPut, Path: "/payments/TRX-123", Description: "Complete payment", Auth: model.SlotUser,
			Body: map[string]any{
				"t_data":     map[string]any{"card_last4": "1234", "method": "credit_card"},
				"validation": "test_hash",
			}},
		{Section: sectionPayments, Method: http.MethodPost, Path: "/payments/refund", Description: "Create refund (admin)", Auth: model.SlotAdmin,
			Body: map[string]any{"amount": 10.00, "transaction": "REFUND-123"}},
	}
}

func billingAndLogoutSteps(acc Accounts) []model.Step {
	return []model.Step{
		{Section: sectionBilling, Method: http.MethodGet, Path: "/billing", Description: "Get my billing", Auth: model.SlotUser},
		{Section: sectionBilling, Method: http.MethodGet, Path: "/billing/" + acc.User.Username, Description: "Get user billing (admin)", Auth: model.SlotAdmin},
		{Section: sectionLogout, Method: http.MethodGet, Path: "/logout", Description: "Logout user", Auth: model.SlotUser},
		{Section: sectionLogout, Method: http.MethodGet, Path: "/logout", Description: "Logout admin", Auth: model.SlotAdmin},
	}
}
