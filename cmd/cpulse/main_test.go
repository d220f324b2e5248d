package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/communitypulse/internal/models"
)

func TestParseCommunity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input   string
		want    models.Community
		wantErr bool
	}{
		{input: "octocat/hello-world", want: models.Community{Owner: "octocat", Name: "hello-world"}},
		{input: " https://github.com/rust-lang/rust.git ", want: models.Community{Owner: "rust-lang", Name: "rust"}},
		{input: "github.com/golang/go/", want: models.Community{Owner: "golang", Name: "go"}},
		{input: "octocat", wantErr: true},
		{input: "octocat/", wantErr: true},
		{input: "a/b/c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := parseCommunity(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenResults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "results.csv")

	f, header, err := openResults(path, true)
	require.NoError(t, err)
	assert.True(t, header, "new file gets a header")
	_, err = f.WriteString("RepoOwner,RepoName\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, header, err = openResults(path, true)
	require.NoError(t, err)
	assert.False(t, header, "appending to a non-empty file")
	require.NoError(t, f.Close())

	f, header, err = openResults(path, false)
	require.NoError(t, err)
	assert.True(t, header)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data, "truncated")
}

func TestPrintRunSummary(t *testing.T) {
	t.Parallel()
	results := make([]models.Result, 0, 1501)
	for i := 0; i < 1500; i++ {
		results = append(results, models.Result{})
	}
	results = append(results, models.Result{Err: "boom"})

	var buf bytes.Buffer
	printRunSummary(&buf, results, 90*time.Second, "out.csv")
	out := buf.String()

	assert.Contains(t, out, "✓ Analysed 1,500 communities in 1m30s")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "→ Results: out.csv")
}

func TestPrintPatterns(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printPatterns(&buf, models.Pattern{SocialNetwork: true, ProjectTeam: true})
	assert.Equal(t, "✓ SocialNetwork\n✓ ProjectTeam\n", buf.String())

	buf.Reset()
	printPatterns(&buf, models.Pattern{})
	assert.True(t, strings.HasPrefix(buf.String(), "➖"))
}

func TestReadBundleRoundTrip(t *testing.T) {
	t.Parallel()
	want := &models.Bundle{
		Community: models.Community{Owner: "octo", Name: "hello"},
		WindowEnd: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Members:   []string{"alice", "bob"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeBundle(&buf, want))
	got, err := readBundle(&buf)
	require.NoError(t, err)
	assert.Equal(t, want.Community, got.Community)
	assert.True(t, want.WindowEnd.Equal(got.WindowEnd))
	assert.Equal(t, want.Members, got.Members)
}
