package kiosk

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/keaganluttrell/lockbox/biometric"
	"github.com/keaganluttrell/lockbox/locker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderString(t *testing.T, r Renderer, view View, page Page) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, r.Render(&sb, view, page))
	return sb.String()
}

func TestTemplateRendererViews(t *testing.T) {
	r, err := NewTemplateRenderer("")
	require.NoError(t, err)

	html := renderString(t, r, ViewHome, Page{})
	assert.Contains(t, html, "<title>Lockbox · Welcome</title>")
	assert.Contains(t, html, `href="/rfid/"`)
	assert.Contains(t, html, `href="/private/"`)

	html = renderString(t, r, ViewSelectLocker, Page{Data: SelectLockerData{Lockers: locker.All(), Action: RoutePinEntry}})
	assert.Contains(t, html, `action="/pin/"`)
	assert.Contains(t, html, `value="16"`)
	assert.Contains(t, html, "Private lockers")

	html = renderString(t, r, ViewPin, Page{Data: PinData{SelectedLocker: 7, Next: NextFingerprint}, Notice: noticeWrongPIN})
	assert.Contains(t, html, "Selected locker: <b>7</b>")
	assert.Contains(t, html, `name="next" value="fingerprint"`)
	assert.Contains(t, html, "Incorrect PIN. Please try again.")
	assert.Contains(t, html, "notice-error")

	html = renderString(t, r, ViewOpenLocker, Page{Data: OpenLockerData{}})
	assert.Contains(t, html, "Locker  is open")

	html = renderString(t, r, ViewRFID, Page{Data: RFIDData{SelectedLocker: 3}, LiveURL: "/ws"})
	assert.Contains(t, html, "Selected locker: <b>3</b>")
	assert.Contains(t, html, "new WebSocket")
}

func TestTemplateRendererFingerprintOptions(t *testing.T) {
	r, err := NewTemplateRenderer("")
	require.NoError(t, err)

	opts := json.RawMessage(`{"challenge":"abc","userVerification":"required"}`)
	html := renderString(t, r, ViewFingerprint, Page{Data: FingerprintData{
		Challenge: &biometric.Challenge{Options: opts, Expires: time.Now()},
	}})
	assert.Contains(t, html, `id="fingerprint-options"`)
	assert.Contains(t, html, `"userVerification":"required"`)

	html = renderString(t, r, ViewFingerprint, Page{Data: FingerprintData{}})
	assert.NotContains(t, html, "fingerprint-options")
}

func TestTemplateRendererUnknownView(t *testing.T) {
	r, err := NewTemplateRenderer("")
	require.NoError(t, err)
	assert.Error(t, r.Render(&strings.Builder{}, View("nope"), Page{}))
}

func TestTemplateRendererReloadsFromDir(t *testing.T) {
	dir := t.TempDir()
	entries, err := templateFiles.ReadDir("templates")
	require.NoError(t, err)
	for _, e := range entries {
		data, err := templateFiles.ReadFile("templates/" + e.Name())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644))
	}

	r, err := NewTemplateRenderer(dir)
	require.NoError(t, err)
	assert.Contains(t, renderString(t, r, ViewHome, Page{}), "Locker access")

	edited := `{{define "content"}}<h1>Out of service</h1>{{end}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.html"), []byte(edited), 0o644))
	assert.Contains(t, renderString(t, r, ViewHome, Page{}), "Out of service")
}

func TestTemplateRendererMissingDir(t *testing.T) {
	_, err := NewTemplateRenderer(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
