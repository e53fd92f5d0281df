package telegram

import (
	"testing"

	"github.com/PaulSonOfLars/gotgbot/v2"

	"github.com/polyntsov/tg-compiler-explorer/internal/message"
)

func TestSpanKind(t *testing.T) {
	tests := []struct {
		entityType string
		want       message.SpanKind
	}{
		{"code", message.SpanCode},
		{"pre", message.SpanPre},
		{"bold", message.SpanOther},
		{"bot_command", message.SpanOther},
		{"", message.SpanOther},
	}

	for _, tt := range tests {
		if got := spanKind(tt.entityType); got != tt.want {
			t.Errorf("spanKind(%q) = %v, want %v", tt.entityType, got, tt.want)
		}
	}
}

func TestSpansFromEntities(t *testing.T) {
	// "/c g122\nint main(){}" with a pre entity over the code and a
	// bot_command entity over "/c". Offsets are in UTF-16 units, which for
	// ASCII text equal the byte offsets.
	msg := &gotgbot.Message{
		Text: "/c g122\nint main(){}",
		Entities: []gotgbot.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: 2},
			{Type: "pre", Offset: 8, Length: 12},
		},
	}

	spans := spansFromEntities(msg)
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Kind != message.SpanOther || spans[0].Text != "/c" {
		t.Errorf("spans[0] = %+v", spans[0])
	}
	if spans[1].Kind != message.SpanPre || spans[1].Text != "int main(){}" {
		t.Errorf("spans[1] = %+v", spans[1])
	}
}

func TestSpansFromEntitiesNone(t *testing.T) {
	msg := &gotgbot.Message{Text: "just text"}
	if spans := spansFromEntities(msg); spans != nil {
		t.Errorf("spans = %v, want nil", spans)
	}
}
