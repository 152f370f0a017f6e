package notification

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ceylonbank/customer_accounts/internal/logging"
)

func TestMask(t *testing.T) {
	cases := map[string]string{
		"0771234567": "*******567",
		"123":        "123",
		"":           "",
	}
	for in, want := range cases {
		if got := Mask(in); got != want {
			t.Fatalf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoggerNotifierMasksDestination(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(logging.NewWithWriter(&buf, "info"))

	err := n.Send(context.Background(), Message{Kind: KindPINChanged, CustomerID: 1000, Destination: "0771234567", Body: "PIN changed"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "0771234567") {
		t.Fatalf("destination leaked into log: %s", out)
	}
	if !strings.Contains(out, KindPINChanged) {
		t.Fatalf("expected kind in log: %s", out)
	}
}

func TestNilNotifier(t *testing.T) {
	var n *LoggerNotifier
	if err := n.Send(context.Background(), Message{}); err != nil {
		t.Fatalf("nil notifier should be a no-op: %v", err)
	}
}
