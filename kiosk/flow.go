package kiosk

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/keaganluttrell/lockbox/biometric"
	"github.com/keaganluttrell/lockbox/locker"
	"github.com/keaganluttrell/lockbox/session"
)

// DefaultDemoPIN is the PIN accepted by the private flow.
const DefaultDemoPIN = "1234"

// NextFingerprint is the pin_entry continuation that leads to the fingerprint screen.
const NextFingerprint = "fingerprint"

// Form parameters.
const (
	paramLocker = "locker_number"
	paramPin    = "pin"
	paramNext   = "next"
)

// View names a page template.
type View string

const (
	ViewHome         View = "home"
	ViewSelectLocker View = "select_locker"
	ViewRFID         View = "rfid"
	ViewOpenLocker   View = "open_locker"
	ViewPin          View = "pin"
	ViewFingerprint  View = "fingerprint"
)

// NoticeKind classifies notice presentation.
type NoticeKind string

const (
	NoticeInfo  NoticeKind = "info"
	NoticeError NoticeKind = "error"
)

// Notice is a one-off message shown on the rendered page.
type Notice struct {
	Kind NoticeKind
	Text string
}

var (
	noticeWrongPIN      = &Notice{Kind: NoticeError, Text: "Incorrect PIN. Please try again."}
	noticeInvalidLocker = &Notice{Kind: NoticeError, Text: "Invalid locker number."}
)

// Request is what a transition sees of an HTTP request.
type Request struct {
	Method string
	// Form holds query and body parameters, body first.
	Form url.Values
}

// lookup returns a parameter and whether it was sent at all.
func (r Request) lookup(key string) (string, bool) {
	vs, ok := r.Form[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// value returns a parameter, treating an empty value as absent.
func (r Request) value(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (r Request) isPost() bool {
	return r.Method == http.MethodPost
}

// Result is the response chosen by a transition: a render or a redirect.
type Result struct {
	View   View
	Data   any
	Notice *Notice

	Redirect Route
	Query    url.Values

	// Flush discards the session (new id, empty state) instead of saving it.
	Flush bool
	// Opened is set by the locker-open transition.
	Opened bool
}

// IsRedirect reports whether the result is a redirect.
func (r Result) IsRedirect() bool {
	return r.Redirect != ""
}

func render(view View, data any) Result {
	return Result{View: view, Data: data}
}

func redirect(route Route) Result {
	return Result{Redirect: route}
}

// View data.
type (
	SelectLockerData struct {
		Lockers  []locker.ID
		IsPublic bool
		// Action is where the selection form posts: back to selection on the
		// public path, to PIN entry on the private path.
		Action Route
	}

	RFIDData struct {
		SelectedLocker locker.ID
	}

	OpenLockerData struct {
		Locker locker.ID
	}

	PinData struct {
		SelectedLocker locker.ID
		Next           string
	}

	FingerprintData struct {
		Challenge *biometric.Challenge
	}
)

// Controller implements the kiosk flow. Each transition reads and mutates
// only the session state it is given.
type Controller struct {
	demoPIN string
}

// NewController creates a controller accepting pin. An empty pin uses DefaultDemoPIN.
func NewController(pin string) *Controller {
	if strings.TrimSpace(pin) == "" {
		pin = DefaultDemoPIN
	}
	return &Controller{demoPIN: strings.TrimSpace(pin)}
}

// Handle dispatches req to the transition for route.
func (c *Controller) Handle(route Route, st *session.State, req Request) Result {
	switch route {
	case RouteHome:
		return c.Home(st, req)
	case RouteSelectLocker:
		return c.SelectLocker(st, req)
	case RoutePrivateAuth:
		return c.PrivateAuth(st, req)
	case RouteRFIDLogin:
		return c.RFIDLogin(st, req)
	case RouteOpenLocker:
		return c.OpenLocker(st, req)
	case RoutePinEntry:
		return c.PinEntry(st, req)
	case RouteFingerprintLogin:
		return c.FingerprintLogin(st, req)
	}
	return redirect(RouteHome)
}

// Home clears the whole session.
func (c *Controller) Home(st *session.State, _ Request) Result {
	st.Reset()
	res := render(ViewHome, nil)
	res.Flush = true
	return res
}

// SelectLocker lists the lockers. On the public path a posted locker is
// stored and the visitor moves on to the tap, or straight to opening when
// the card was already tapped.
func (c *Controller) SelectLocker(st *session.State, req Request) Result {
	isPublic := st.PublicFlow
	page := render(ViewSelectLocker, selectLockerData(isPublic))

	if !isPublic || !req.isPost() {
		return page
	}
	raw, ok := req.value(paramLocker)
	if !ok {
		return page
	}
	id, err := locker.Parse(raw)
	if err != nil {
		page.Notice = noticeInvalidLocker
		return page
	}

	st.SelectedLocker = id
	if st.RFIDAuthenticated {
		return redirect(RouteOpenLocker)
	}
	return redirect(RouteRFIDLogin)
}

func selectLockerData(isPublic bool) SelectLockerData {
	action := RoutePinEntry
	if isPublic {
		action = RouteSelectLocker
	}
	return SelectLockerData{Lockers: locker.All(), IsPublic: isPublic, Action: action}
}

// RFIDLogin enters the public path. A POST is the card tap.
func (c *Controller) RFIDLogin(st *session.State, req Request) Result {
	st.PublicFlow = true

	if req.isPost() {
		st.RFIDAuthenticated = true
		if st.SelectedLocker != 0 {
			return redirect(RouteOpenLocker)
		}
		return redirect(RouteSelectLocker)
	}
	return render(ViewRFID, RFIDData{SelectedLocker: st.SelectedLocker})
}

// OpenLocker simulates opening the selected locker and clears the public
// path flags. No locker is required: the page then shows an empty locker.
func (c *Controller) OpenLocker(st *session.State, _ Request) Result {
	id := st.SelectedLocker
	st.RFIDAuthenticated = false
	st.SelectedLocker = 0
	st.PublicFlow = false

	res := render(ViewOpenLocker, OpenLockerData{Locker: id})
	res.Opened = true
	return res
}

// PrivateAuth funnels the private path through locker selection.
func (c *Controller) PrivateAuth(*session.State, Request) Result {
	return redirect(RouteSelectLocker)
}

// PinEntry shows the PIN form. A POST carrying locker_number stores the
// locker and shows the form again; otherwise a posted pin is checked.
func (c *Controller) PinEntry(st *session.State, req Request) Result {
	next, _ := req.lookup(paramNext)
	if !req.isPost() {
		return render(ViewPin, PinData{Next: next})
	}

	if raw, ok := req.value(paramLocker); ok {
		id, err := locker.Parse(raw)
		if err != nil {
			res := render(ViewPin, PinData{SelectedLocker: st.SelectedLocker, Next: next})
			res.Notice = noticeInvalidLocker
			return res
		}
		st.SelectedLocker = id
		return render(ViewPin, PinData{SelectedLocker: id, Next: next})
	}

	pin, sent := req.lookup(paramPin)
	if !sent {
		return render(ViewPin, PinData{Next: next})
	}
	if strings.TrimSpace(pin) != c.demoPIN {
		res := render(ViewPin, PinData{Next: next})
		res.Notice = noticeWrongPIN
		return res
	}

	st.PinVerified = true
	// Every continuation currently leads to the fingerprint screen.
	return redirect(RouteFingerprintLogin)
}

// FingerprintLogin shows the fingerprint screen once per verified PIN.
func (c *Controller) FingerprintLogin(st *session.State, _ Request) Result {
	if !st.PinVerified {
		res := redirect(RoutePinEntry)
		res.Query = url.Values{paramNext: {NextFingerprint}}
		return res
	}
	st.PinVerified = false
	return render(ViewFingerprint, FingerprintData{})
}
