package moss

import "testing"

func TestDisplayName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{`a b\c.py`, "a_b/c.py"},
		{"submissions/alice/main.c", "submissions/alice/main.c"},
		{`C:\Users\Bob Smith\hw 1.java`, "C:/Users/Bob_Smith/hw_1.java"},
		{"  ", "__"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DisplayName(tt.path); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestAddFile_KeepsOrderAndDuplicates(t *testing.T) {
	s := New("1")
	s.AddFile("b.py")
	s.AddFile("a.py")
	s.AddFileAs("b.py", "bob/b.py")
	s.AddBaseFile("starter.py")

	files := s.Files()
	want := []FileRef{
		{Path: "b.py"},
		{Path: "a.py"},
		{Path: "b.py", DisplayName: "bob/b.py"},
	}
	if len(files) != len(want) {
		t.Fatalf("Files() = %v", files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("Files()[%d] = %+v, want %+v", i, files[i], want[i])
		}
	}
	if base := s.BaseFiles(); len(base) != 1 || base[0].Path != "starter.py" {
		t.Errorf("BaseFiles() = %v", base)
	}
}

func TestAddFile_NoExistenceCheck(t *testing.T) {
	s := New("1")
	s.AddFile("/definitely/not/here.c")
	if len(s.Files()) != 1 {
		t.Error("AddFile must not check the filesystem")
	}
}
