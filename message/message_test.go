package message_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xraph/herald/message"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		msg  message.Message
		kind message.Kind
		to   string
	}{
		{message.NewEmail("a@x.io", "b@x.io", "s", "b"), message.KindEmail, "b@x.io"},
		{message.NewSMS("+15550000001", "+15550000002", "hi"), message.KindSMS, "+15550000002"},
		{message.NewPush("device-token-123", "t", "b"), message.KindPush, "device-token-123"},
		{message.NewChat("#ops", "deploy done"), message.KindChat, "#ops"},
	}

	for _, tt := range tests {
		if got := tt.msg.Kind(); got != tt.kind {
			t.Errorf("Kind() = %q, want %q", got, tt.kind)
		}
		if got := tt.msg.Recipient(); got != tt.to {
			t.Errorf("Recipient() = %q, want %q", got, tt.to)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range message.Kinds() {
		got, err := message.ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k, err)
		}
		if got != k {
			t.Fatalf("ParseKind(%q) = %q", k, got)
		}
	}

	if _, err := message.ParseKind("fax"); !errors.Is(err, message.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestEmailWithCCDoesNotAlias(t *testing.T) {
	base := message.NewEmail("a@x.io", "b@x.io", "s", "b").WithCC("c@x.io")
	one := base.WithCC("d@x.io")
	two := base.WithCC("e@x.io")

	if diff := cmp.Diff([]string{"c@x.io"}, base.CC); diff != "" {
		t.Fatalf("base CC changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c@x.io", "d@x.io"}, one.CC); diff != "" {
		t.Fatalf("one CC (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c@x.io", "e@x.io"}, two.CC); diff != "" {
		t.Fatalf("two CC (-want +got):\n%s", diff)
	}
}

func TestPushWithDataCopies(t *testing.T) {
	data := map[string]string{"order": "42"}
	p := message.NewPush("device-token-123", "t", "b").WithData(data)
	data["order"] = "43"

	if p.Data["order"] != "42" {
		t.Fatalf("push data aliased caller map: %v", p.Data)
	}

	q := p.WithData(map[string]string{"extra": "1"})
	if _, ok := p.Data["extra"]; ok {
		t.Fatal("WithData mutated the receiver")
	}
	if len(q.Data) != 2 {
		t.Fatalf("merged data = %v", q.Data)
	}

	b := q.WithBadge(3)
	if b.Badge == nil || *b.Badge != 3 || q.Badge != nil {
		t.Fatal("WithBadge should only set the badge on the copy")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		msg  message.Message
		want string
	}{
		{nil, "<nil message>"},
		{message.NewEmail("a@x.io", "b@x.io", "Welcome", "b"), "email to b@x.io [subject: Welcome]"},
		{message.NewSMS("+15550000001", "+15550000002", "hello"), "sms to +15550000002 [5 chars]"},
		{message.NewPush("abcd1234efgh5678", "Hi", "b"), "push to device abcd...5678 [title: Hi]"},
		{message.NewChat("#ops", "x"), "chat message to #ops"},
	}

	for _, tt := range tests {
		if got := message.Describe(tt.msg); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}

func TestMaskToken(t *testing.T) {
	if got := message.MaskToken("short"); got != "[***]" {
		t.Fatalf("short token = %q", got)
	}
	if got := message.MaskToken("12345678"); got != "[***]" {
		t.Fatalf("eight char token = %q", got)
	}
	if got := message.MaskToken("123456789"); got != "1234...6789" {
		t.Fatalf("nine char token = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 120)
	got := message.Truncate(long, 100)
	if len(got) != 103 || !strings.HasSuffix(got, "...") {
		t.Fatalf("Truncate = %q", got)
	}
	if message.Truncate("abc", 100) != "abc" {
		t.Fatal("short strings must be returned unchanged")
	}
}
