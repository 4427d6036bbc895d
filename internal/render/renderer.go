// Package render turns a normalized event record into the two announcement
// artifacts: a rich embed for the chat webhook and an HTML body for the
// announcement email. Rendering is pure; the same record always produces
// byte-identical output.
package render

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/bths-action/club-api/internal/models"
	"github.com/bths-action/club-api/pkg/config"
)

// timeLayout is the canonical announcement wording for timestamps,
// e.g. "March 7, 2025 6:30 PM". All announcement times are rendered in the
// site timezone regardless of caller locale.
const timeLayout = "January 2, 2006 3:04 PM"

// EmbedImage is the cover image of an embed.
type EmbedImage struct {
	URL string `json:"url"`
}

// EmbedField is one name/value pair in an embed. Consumers render fields in
// sequence, so ordering is part of the contract.
type EmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Embed is the structured summary posted to the chat webhook.
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Image       EmbedImage   `json:"image"`
	Timestamp   string       `json:"timestamp"`
	URL         string       `json:"url"`
	Fields      []EmbedField `json:"fields"`
}

// Renderer builds announcement artifacts from event records.
type Renderer struct {
	loc             *time.Location
	baseURL         string
	defaultImageURL string
	markdown        goldmark.Markdown
}

// New constructs a Renderer for the given site settings.
func New(site config.SiteConfig) (*Renderer, error) {
	tz := site.Timezone
	if tz == "" {
		tz = "America/New_York"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load site timezone %q: %w", tz, err)
	}
	return &Renderer{
		loc:             loc,
		baseURL:         strings.TrimRight(site.BaseURL, "/"),
		defaultImageURL: site.DefaultImageURL,
		markdown:        goldmark.New(),
	}, nil
}

// Permalink returns the canonical URL for an event id.
func (r *Renderer) Permalink(id string) string {
	return r.baseURL + "/events/" + id
}

// ResolveLink replaces every self-link placeholder in the description with
// the event's permalink.
func (r *Renderer) ResolveLink(description, id string) string {
	return strings.ReplaceAll(description, models.LinkPlaceholder, r.Permalink(id))
}

// Subject returns the announcement email subject line.
func (r *Renderer) Subject(event models.Event) string {
	return "New BTHS Action Event: " + event.Name
}

// Embed builds the chat-channel summary. publishedAt becomes the embed
// timestamp so that rendering stays deterministic for a given instant.
//
// Field order is fixed: start time, finish time (if any), capacity (if any),
// points, hours, location.
func (r *Renderer) Embed(event models.Event, publishedAt time.Time) Embed {
	startLabel := "**Event Time:**"
	if event.FinishTime != nil {
		startLabel = "**Event Start Time:**"
	}

	fields := []EmbedField{{
		Name:  startLabel,
		Value: r.formatTime(event.EventTime),
	}}

	if event.FinishTime != nil {
		fields = append(fields, EmbedField{
			Name:  "**Event Finish Time:**",
			Value: r.formatTime(*event.FinishTime),
		})
	}

	if event.Limit != nil && *event.Limit > 0 {
		fields = append(fields, EmbedField{
			Name:  "**Max Members:**",
			Value: strconv.Itoa(*event.Limit),
		})
	}

	fields = append(fields,
		EmbedField{Name: "**Points:**", Value: formatNumber(event.MaxPoints)},
		EmbedField{Name: "**Hours:**", Value: formatNumber(event.MaxHours)},
		EmbedField{Name: "**Location:**", Value: r.locationLink(event.Address)},
	)

	imageURL := r.defaultImageURL
	if event.ImageURL != nil && *event.ImageURL != "" {
		imageURL = *event.ImageURL
	}

	return Embed{
		Title:       "New Event: " + event.Name,
		Description: event.Description,
		Image:       EmbedImage{URL: imageURL},
		Timestamp:   publishedAt.UTC().Format(time.RFC3339),
		URL:         r.Permalink(event.ID),
		Fields:      fields,
	}
}

// EmailHTML builds the HTML announcement body. The prose is authored as
// markdown and converted, mirroring the embed's conditional lines.
func (r *Renderer) EmailHTML(event models.Event) (string, error) {
	var md strings.Builder

	md.WriteString("Hey Action members!!!\n\n")
	md.WriteString(fmt.Sprintf(
		"Time to get moving and get some credits and/or hours done!!! On %s we will be having a new event called **%s**!\n",
		r.formatTime(event.EventTime), event.Name))

	md.WriteString("#### Description:\n")
	for _, line := range strings.Split(event.Description, "\n") {
		md.WriteString("> " + line + "\n")
	}
	md.WriteString("\n")

	if event.FinishTime != nil {
		md.WriteString("#### Event Start Time: " + r.formatTime(event.EventTime) + "\n")
		md.WriteString("#### Event Finish Time: " + r.formatTime(*event.FinishTime) + "\n")
	} else {
		md.WriteString("#### Event Time: " + r.formatTime(event.EventTime) + "\n")
	}

	if event.Limit != nil && *event.Limit > 0 {
		md.WriteString(fmt.Sprintf("\n#### Max Members (Register Quick!!!): %d\n", *event.Limit))
	}

	md.WriteString(fmt.Sprintf("#### Points: %s | Hours: %s\n", formatNumber(event.MaxPoints), formatNumber(event.MaxHours)))
	md.WriteString("#### Location: " + r.locationLink(event.Address) + "\n")
	md.WriteString(fmt.Sprintf("View the whole event [here](%s).\n\n", r.Permalink(event.ID)))
	md.WriteString(`To unsubscribe, go edit your profile on the website and uncheck the box that says "Receive Event Alerts".`)

	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(md.String()), &buf); err != nil {
		return "", fmt.Errorf("render email html: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) formatTime(t time.Time) string {
	return t.In(r.loc).Format(timeLayout)
}

// locationLink renders the address as a markdown link to a transit
// directions query.
func (r *Renderer) locationLink(address string) string {
	dirs := "https://www.google.com/maps/dir/?api=1&destination=" + url.QueryEscape(address) + "&travelmode=transit"
	return fmt.Sprintf("[%s](%s)", address, dirs)
}

// formatNumber prints points and hours the shortest way: 5 not 5.0, 2.5 as is.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
