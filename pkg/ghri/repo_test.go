package ghri

import "testing"

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ParsedSpec
		wantErr bool
	}{
		{
			name:  "owner/repo only",
			input: "bodaay/ghri",
			want:  ParsedSpec{RepoId: RepoId{Owner: "bodaay", Repo: "ghri"}},
		},
		{
			name:  "owner/repo@version",
			input: "bodaay/ghri@v1.2.3",
			want:  ParsedSpec{RepoId: RepoId{Owner: "bodaay", Repo: "ghri"}, Version: "v1.2.3"},
		},
		{
			name:  "owner/repo@version:path",
			input: "bodaay/ghri@v1.2.3:bin/ghri",
			want: ParsedSpec{
				RepoId:  RepoId{Owner: "bodaay", Repo: "ghri"},
				Version: "v1.2.3",
				Path:    "bin/ghri",
			},
		},
		{
			name:  "owner/repo:path",
			input: "bodaay/ghri:bin/ghri",
			want: ParsedSpec{
				RepoId: RepoId{Owner: "bodaay", Repo: "ghri"},
				Path:   "bin/ghri",
			},
		},
		{name: "missing slash", input: "bodaay", wantErr: true},
		{name: "empty owner", input: "/ghri", wantErr: true},
		{name: "empty repo", input: "bodaay/", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSpec(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("ParseSpec(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRepoIdString(t *testing.T) {
	id := RepoId{Owner: "bodaay", Repo: "ghri"}
	if got := id.String(); got != "bodaay/ghri" {
		t.Errorf("RepoId.String() = %q, want %q", got, "bodaay/ghri")
	}
}
