package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/scoring"
	"github.com/prepstem/ieltsmock-backend/internal/session"
)

func TestReportResultPostsToBotAPI(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, "test-token", 42, zerolog.Nop())
	err := n.ReportResult(context.Background(), session.Report{
		SessionID: "sess-1",
		SectionID: "listening-mock-1",
		Identity:  session.Identity{FirstName: "Aidana", LastName: "Serik", Phone: "+7700"},
		Result:    scoring.Result{Correct: 39, Band: 9},
	})
	if err != nil {
		t.Fatalf("ReportResult: %v", err)
	}

	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("path = %q, want /bottest-token/sendMessage", gotPath)
	}
	if gotBody["chat_id"].(float64) != 42 {
		t.Errorf("chat_id = %v, want 42", gotBody["chat_id"])
	}
	text := gotBody["text"].(string)
	for _, want := range []string{"Result: listening-mock-1", "Aidana", "Serik", "+7700", "39", "9.0"} {
		if !strings.Contains(text, want) {
			t.Errorf("message text %q missing %q", text, want)
		}
	}
}

func TestSendErrorsSurfaceToCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := New(srv.URL, "test-token", 42, zerolog.Nop())
	if err := n.SendCode(context.Background(), "1234"); err == nil {
		t.Error("SendCode on 502 = nil, want error")
	}
}

func TestDisabledNotifierIsNoOp(t *testing.T) {
	n := New("http://bot.invalid", "", 42, zerolog.Nop())
	if err := n.SendCode(context.Background(), "1234"); err != nil {
		t.Errorf("disabled notifier returned %v, want nil", err)
	}
}

func TestIsCodeRequest(t *testing.T) {
	n := New("http://bot.invalid", "tok", 42, zerolog.Nop())

	tests := []struct {
		name string
		chat int64
		text string
		want bool
	}{
		{name: "admin asks for code", chat: 42, text: "/code", want: true},
		{name: "wrong chat", chat: 7, text: "/code", want: false},
		{name: "other command", chat: 42, text: "/start", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var u Update
			u.Message.Chat.ID = tc.chat
			u.Message.Text = tc.text
			if got := n.IsCodeRequest(&u); got != tc.want {
				t.Errorf("IsCodeRequest = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsCodeRequestDisabledWithoutAdminChat(t *testing.T) {
	n := New("http://bot.invalid", "tok", 0, zerolog.Nop())
	var u Update
	u.Message.Chat.ID = 0
	u.Message.Text = "/code"
	if n.IsCodeRequest(&u) {
		t.Error("IsCodeRequest accepted updates with no admin chat configured")
	}
}
