package message

import "testing"

func TestExtractCompileRequest(t *testing.T) {
	tests := []struct {
		name         string
		msg          Incoming
		wantCompiler string
		wantCode     string
		wantErr      string
	}{
		{
			name: "single pre span",
			msg: Incoming{
				Text:  "/c g122\nint main(){}",
				Spans: []Span{{Kind: SpanPre, Text: "int main(){}"}},
			},
			wantCompiler: "g122",
			wantCode:     "int main(){}",
		},
		{
			name: "single inline code span",
			msg: Incoming{
				Text:  "/compile clang1600 puts(\"hi\")",
				Spans: []Span{{Kind: SpanCode, Text: "puts(\"hi\")"}},
			},
			wantCompiler: "clang1600",
			wantCode:     "puts(\"hi\")",
		},
		{
			name: "extra tokens after compiler id are ignored",
			msg: Incoming{
				Text:  "/c g122 -O2 whatever\nfn main() {}",
				Spans: []Span{{Kind: SpanPre, Text: "fn main() {}"}},
			},
			wantCompiler: "g122",
			wantCode:     "fn main() {}",
		},
		{
			name: "non-code spans do not count",
			msg: Incoming{
				Text: "/c g122\nint main(){}",
				Spans: []Span{
					{Kind: SpanOther, Text: "/c"},
					{Kind: SpanPre, Text: "int main(){}"},
				},
			},
			wantCompiler: "g122",
			wantCode:     "int main(){}",
		},
		{
			name:    "no code block",
			msg:     Incoming{Text: "/c g122 int main(){}"},
			wantErr: "Invalid format. Expected exactly one code block, got 0.",
		},
		{
			name: "two code blocks",
			msg: Incoming{
				Text: "/c g122\nfoo\nbar",
				Spans: []Span{
					{Kind: SpanPre, Text: "foo"},
					{Kind: SpanPre, Text: "bar"},
				},
			},
			wantErr: "Invalid format. Expected exactly one code block, got 2.",
		},
		{
			name: "missing compiler id",
			msg: Incoming{
				Text:  "/c\nint main(){}",
				Spans: []Span{{Kind: SpanPre, Text: "int main(){}"}},
			},
			wantErr: "Invalid format. Expected compile command.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractCompileRequest(tt.msg)

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ExtractCompileRequest() = %+v, want error %q", got, tt.wantErr)
				}
				if err.Error() != tt.wantErr {
					t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("ExtractCompileRequest() error = %v", err)
			}
			if got.CompilerID != tt.wantCompiler {
				t.Errorf("CompilerID = %q, want %q", got.CompilerID, tt.wantCompiler)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestSplitArg(t *testing.T) {
	tests := []struct {
		arg          string
		wantPrimary  string
		wantResidual string
	}{
		{"", "", ""},
		{"   ", "", ""},
		{"rust", "rust", ""},
		{"rust gcc", "rust", "gcc"},
		{"  rust   gcc  ", "rust", "gcc"},
		{"c++ clang trunk", "c++", "clang trunk"},
		{"c clang  15", "c", "clang  15"}, // residual keeps internal whitespace
		{"go\tgc 1.22", "go", "gc 1.22"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			primary, residual := SplitArg(tt.arg)
			if primary != tt.wantPrimary || residual != tt.wantResidual {
				t.Errorf("SplitArg(%q) = (%q, %q), want (%q, %q)",
					tt.arg, primary, residual, tt.wantPrimary, tt.wantResidual)
			}
		})
	}
}
