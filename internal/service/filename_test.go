package service

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"report.pdf", "report.pdf"},
		{"My cool movie.mov", "My_cool_movie.mov"},
		{"../../../etc/passwd", "etc_passwd"},
		{`C:\Users\ann\résumé.docx`, "C_Users_ann_resume.docx"},
		{"i contain cool \xfcmlauts.txt", "i_contain_cool_mlauts.txt"},
		{"  spaced   out .doc", "spaced_out_.doc"},
		{"con.pdf", "_con.pdf"},
		{"...", ""},
		{"漢字.pdf", "pdf"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrepareForAnalysis(t *testing.T) {
	in := "Title\r\n\r\n\r\n\r\n\r\nBody\x00 text\x07 with\u00a0space   \n\xff"
	want := "Title\n\n\nBody text with space"
	if got := prepareForAnalysis(in); got != want {
		t.Errorf("prepareForAnalysis() = %q, want %q", got, want)
	}
}
