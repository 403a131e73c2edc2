package normalizer

import (
	"testing"

	"golang-alert-ingestion-service/internal/models"
)

func TestNormalize_PlainBody(t *testing.T) {
	n := New(nil)
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"collapses whitespace", "Rs.500\n\n  debited\tfrom  a/c", "Rs.500 debited from a/c"},
		{"nbsp and narrow spaces", "INR\u00a03,480 at\u202fSHOP", "INR 3,480 at SHOP"},
		{"zero width characters", "Amount:\u200bINR\ufeff12", "Amount: INR 12"},
		{"soft hyphen removed", "AMA\u00adZON", "AMAZON"},
		{"fullwidth digits folded", "Rs.\uff15\uff10\uff10", "Rs.500"},
		{"only whitespace", " \n\t ", NoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(&models.RawMessage{SourceID: "m", BodyText: tt.body})
			if got != tt.expected {
				t.Errorf("Normalize() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNormalize_NoContent(t *testing.T) {
	n := New(nil)

	if got := n.Normalize(nil); !IsNoContent(got) {
		t.Errorf("nil message: got %q, want no content", got)
	}
	if got := n.Normalize(&models.RawMessage{SourceID: "m"}); !IsNoContent(got) {
		t.Errorf("empty message: got %q, want no content", got)
	}
	attachmentOnly := &models.RawMessage{
		SourceID: "m",
		Payload: &models.MessagePart{
			MimeType: "multipart/mixed",
			Parts:    []*models.MessagePart{{MimeType: "application/pdf", Body: "%PDF-1.4"}},
		},
	}
	if got := n.Normalize(attachmentOnly); !IsNoContent(got) {
		t.Errorf("attachment only: got %q, want no content", got)
	}
}

func TestNormalize_HTMLBody(t *testing.T) {
	n := New(nil)
	body := `<html><head><style>td{color:red}</style><title>Alert</title></head>
<body><div>Rs.1,200.00 debited</div><table><tr><td>Merchant</td><td>SWIGGY</td></tr></table>
<script>track()</script><p>Regards<br>HDFC Bank</p></body></html>`

	got := n.Normalize(&models.RawMessage{SourceID: "m", BodyText: body})
	want := "Rs.1,200.00 debited Merchant SWIGGY Regards HDFC Bank"
	if got != want {
		t.Errorf("Normalize() = %q, want %q", got, want)
	}
}

func TestNormalize_MultipartPayload(t *testing.T) {
	n := New(nil)
	msg := &models.RawMessage{
		SourceID: "m",
		BodyText: "ignored when payload has text",
		Payload: &models.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*models.MessagePart{
				{MimeType: "text/plain; charset=UTF-8", Body: "Transaction Amount: INR 3,480"},
				{
					MimeType: "multipart/related",
					Parts: []*models.MessagePart{
						{MimeType: "text/html", Body: "<p>Merchant Name: <b>MADHULOKA L</b></p>"},
						{MimeType: "image/png", Body: "binary"},
					},
				},
			},
		},
	}

	got := n.Normalize(msg)
	want := "Transaction Amount: INR 3,480 Merchant Name: MADHULOKA L"
	if got != want {
		t.Errorf("Normalize() = %q, want %q", got, want)
	}
}

func TestNormalize_EmptyPayloadFallsBackToBody(t *testing.T) {
	n := New(nil)
	msg := &models.RawMessage{
		SourceID: "m",
		BodyText: "Rs.50 spent",
		Payload:  &models.MessagePart{MimeType: "multipart/mixed"},
	}
	if got := n.Normalize(msg); got != "Rs.50 spent" {
		t.Errorf("Normalize() = %q, want %q", got, "Rs.50 spent")
	}
}

func TestLooksLikeHTML(t *testing.T) {
	n := New(&Config{HTMLMarkers: []string{"<TABLE"}})
	if !n.LooksLikeHTML("<table><tr><td>x</td></tr></table>") {
		t.Error("expected table markup to be detected")
	}
	if n.LooksLikeHTML("Amount < 500 and > 100") {
		t.Error("did not expect comparison text to be detected as HTML")
	}
}
