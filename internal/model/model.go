package model

import (
	"strconv"
	"strings"
	"time"
)

// StatusError is recorded in place of a status code when no response was received.
const StatusError = "ERROR"

// Slot names a session token holder carried between steps.
type Slot string

const (
	SlotNone  Slot = ""
	SlotUser  Slot = "user"
	SlotAdmin Slot = "admin"
)

// ParseSlot accepts "", "none", "-", "user" and "admin" in any case.
func ParseSlot(s string) (Slot, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "-":
		return SlotNone, true
	case "user":
		return SlotUser, true
	case "admin":
		return SlotAdmin, true
	}
	return SlotNone, false
}

type Step struct {
	Section     string // section header printed before the first step of a group
	Method      string
	Path        string
	Description string
	Body        any  // JSON-encodable request body, nil for none
	Auth        Slot // token sent in the Authorization header
	Capture     Slot // slot filled from a 200 login response
}

type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type Record struct {
	Number      int
	Section     string
	Endpoint    string
	Method      string
	Description string
	StatusCode  int
	Response    any // decoded JSON, or the raw body text
	Error       string
	Timestamp   time.Time
	Duration    time.Duration
	Curl        string
}

// Status returns the status code as text, or StatusError when the call never got a response.
func (r Record) Status() string {
	if r.Error != "" {
		return StatusError
	}
	return strconv.Itoa(r.StatusCode)
}

// Failed reports a transport error or a non-2xx/3xx response.
func (r Record) Failed() bool {
	return r.Error != "" || r.StatusCode >= 400
}
