package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bths-action/club-api/internal/models"
	"github.com/bths-action/club-api/pkg/config"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(config.SiteConfig{
		BaseURL:         "https://bthsaction.org",
		DefaultImageURL: "https://bthsaction.org/icon.png",
		Timezone:        "America/New_York",
	})
	require.NoError(t, err)
	return r
}

func baseEvent() models.Event {
	return models.Event{
		ID:          "evt-1",
		Name:        "Beach Cleanup",
		Description: "Meet at the dock.",
		EventTime:   time.Date(2025, 6, 14, 14, 30, 0, 0, time.UTC),
		MaxPoints:   5,
		MaxHours:    2.5,
		Address:     "1 Dock Rd",
	}
}

func fieldNames(e Embed) []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

func TestEmbedFieldOrderMinimal(t *testing.T) {
	r := newTestRenderer(t)

	embed := r.Embed(baseEvent(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, []string{
		"**Event Time:**",
		"**Points:**",
		"**Hours:**",
		"**Location:**",
	}, fieldNames(embed))
}

func TestEmbedFieldOrderFull(t *testing.T) {
	r := newTestRenderer(t)

	event := baseEvent()
	finish := time.Date(2025, 6, 14, 17, 0, 0, 0, time.UTC)
	limit := 25
	event.FinishTime = &finish
	event.Limit = &limit

	embed := r.Embed(event, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, []string{
		"**Event Start Time:**",
		"**Event Finish Time:**",
		"**Max Members:**",
		"**Points:**",
		"**Hours:**",
		"**Location:**",
	}, fieldNames(embed))
	assert.Equal(t, "25", embed.Fields[2].Value)
}

func TestEmbedZeroLimitRendersNoCapacityField(t *testing.T) {
	r := newTestRenderer(t)

	event := baseEvent()
	zero := 0
	event.Limit = &zero

	embed := r.Embed(event, time.Now())
	for _, f := range embed.Fields {
		assert.NotEqual(t, "**Max Members:**", f.Name)
	}
}

func TestEmbedTimesUseSiteTimezone(t *testing.T) {
	r := newTestRenderer(t)

	// 14:30 UTC is 10:30 AM in New York during DST.
	embed := r.Embed(baseEvent(), time.Now())
	assert.Equal(t, "June 14, 2025 10:30 AM", embed.Fields[0].Value)
}

func TestEmbedDefaultsAndPermalink(t *testing.T) {
	r := newTestRenderer(t)

	embed := r.Embed(baseEvent(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "New Event: Beach Cleanup", embed.Title)
	assert.Equal(t, "https://bthsaction.org/icon.png", embed.Image.URL)
	assert.Equal(t, "https://bthsaction.org/events/evt-1", embed.URL)
	assert.Equal(t, "2025-06-01T12:00:00Z", embed.Timestamp)

	custom := "https://example.com/cover.png"
	event := baseEvent()
	event.ImageURL = &custom
	embed = r.Embed(event, time.Now())
	assert.Equal(t, custom, embed.Image.URL)
}

func TestEmbedLocationLinksDirections(t *testing.T) {
	r := newTestRenderer(t)

	embed := r.Embed(baseEvent(), time.Now())
	location := embed.Fields[len(embed.Fields)-1].Value
	assert.True(t, strings.HasPrefix(location, "[1 Dock Rd]("))
	assert.Contains(t, location, "https://www.google.com/maps/dir/?api=1&destination=1+Dock+Rd&travelmode=transit")
}

func TestEmbedPointsAndHoursRenderShortest(t *testing.T) {
	r := newTestRenderer(t)

	embed := r.Embed(baseEvent(), time.Now())
	assert.Equal(t, "5", embed.Fields[1].Value)
	assert.Equal(t, "2.5", embed.Fields[2].Value)
}

func TestResolveLink(t *testing.T) {
	r := newTestRenderer(t)

	resolved := r.ResolveLink("Meet at the dock.\n{@link}\nAlso {@link}", "evt-1")
	assert.Equal(t, "Meet at the dock.\nhttps://bthsaction.org/events/evt-1\nAlso https://bthsaction.org/events/evt-1", resolved)
	assert.NotContains(t, resolved, models.LinkPlaceholder)
}

func TestEmailHTMLContents(t *testing.T) {
	r := newTestRenderer(t)

	event := baseEvent()
	event.Description = "Bring gloves.\nSnacks provided."
	html, err := r.EmailHTML(event)
	require.NoError(t, err)

	assert.Contains(t, html, "<strong>Beach Cleanup</strong>")
	assert.Contains(t, html, "<blockquote>")
	assert.Contains(t, html, "Bring gloves.")
	assert.Contains(t, html, "Snacks provided.")
	assert.Contains(t, html, "travelmode=transit")
	assert.Contains(t, html, "https://bthsaction.org/events/evt-1")
	assert.Contains(t, html, "Receive Event Alerts")
	assert.NotContains(t, html, "Finish Time")
	assert.NotContains(t, html, "Max Members")
}

func TestEmailHTMLWithFinishAndLimit(t *testing.T) {
	r := newTestRenderer(t)

	event := baseEvent()
	finish := time.Date(2025, 6, 14, 17, 0, 0, 0, time.UTC)
	limit := 30
	event.FinishTime = &finish
	event.Limit = &limit

	html, err := r.EmailHTML(event)
	require.NoError(t, err)

	assert.Contains(t, html, "Event Start Time: June 14, 2025 10:30 AM")
	assert.Contains(t, html, "Event Finish Time: June 14, 2025 1:00 PM")
	assert.Contains(t, html, "Max Members (Register Quick!!!): 30")
}

func TestRenderingIsDeterministic(t *testing.T) {
	r := newTestRenderer(t)

	event := baseEvent()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := r.Embed(event, at)
	second := r.Embed(event, at)
	assert.Equal(t, first, second)

	html1, err := r.EmailHTML(event)
	require.NoError(t, err)
	html2, err := r.EmailHTML(event)
	require.NoError(t, err)
	assert.Equal(t, html1, html2)
}

func TestSubject(t *testing.T) {
	r := newTestRenderer(t)
	assert.Equal(t, "New BTHS Action Event: Beach Cleanup", r.Subject(baseEvent()))
}
