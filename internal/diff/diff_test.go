package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/app/user.go b/app/user.go
index 1234567..89abcde 100644
--- a/app/user.go
+++ b/app/user.go
@@ -10,4 +10,6 @@ func LoadUser(id string) (*User, error) {
 	row := db.QueryRow(query, id)
 	var u User
+	if err := row.Scan(&u.ID, &u.Name); err != nil {
+		return nil, err
+	}
 	return &u, nil
-	// old fallthrough
`

func TestParseFile(t *testing.T) {
	fd, err := ParseFile("app/user.go", sampleDiff)
	require.NoError(t, err)
	require.Len(t, fd.Hunks, 1)

	h := fd.Hunks[0]
	assert.Equal(t, 10, h.OldStart)
	assert.Equal(t, 4, h.OldCount)
	assert.Equal(t, 10, h.NewStart)
	assert.Equal(t, 6, h.NewCount)

	added := fd.AddedLines()
	require.Len(t, added, 3)
	assert.Equal(t, "\tif err := row.Scan(&u.ID, &u.Name); err != nil {", added[0].Text)
	assert.Equal(t, 12, added[0].Number)
	assert.Equal(t, 13, added[1].Number)
	assert.Equal(t, 14, added[2].Number)
}

func TestParseFile_RemovedLinesHaveNoNewNumber(t *testing.T) {
	fd, err := ParseFile("app/user.go", sampleDiff)
	require.NoError(t, err)

	var removed []Line
	for _, l := range fd.Hunks[0].Lines {
		if l.Kind == LineRemoved {
			removed = append(removed, l)
		}
	}
	require.Len(t, removed, 1)
	assert.Equal(t, 0, removed[0].Number)
}

func TestParseFile_IgnoresHeadersBeforeFirstHunk(t *testing.T) {
	fd, err := ParseFile("a.go", "diff --git a/a.go b/a.go\nindex 000..111 100644\n--- a/a.go\n+++ b/a.go\n")
	require.NoError(t, err)
	assert.Empty(t, fd.Hunks)
}

func TestParseFile_MalformedHunkHeader(t *testing.T) {
	_, err := ParseFile("a.go", "@@ not a header @@\n+x\n")
	assert.Error(t, err)
}

func TestParseFile_DefaultRangeCount(t *testing.T) {
	fd, err := ParseFile("a.go", "@@ -1 +1 @@\n-old\n+new\n")
	require.NoError(t, err)
	require.Len(t, fd.Hunks, 1)
	assert.Equal(t, 1, fd.Hunks[0].OldCount)
	assert.Equal(t, 1, fd.Hunks[0].NewCount)
	assert.Equal(t, 1, fd.FirstAddedLine())
}

func TestParseFile_NoNewlineMarker(t *testing.T) {
	fd, err := ParseFile("a.go", "@@ -1,1 +1,1 @@\n+x\n\\ No newline at end of file\n")
	require.NoError(t, err)
	require.Len(t, fd.Hunks[0].Lines, 1)
}

func TestFirstAddedLine_NoAdditions(t *testing.T) {
	fd, err := ParseFile("a.go", "@@ -5,2 +5,1 @@\n context\n-gone\n")
	require.NoError(t, err)
	assert.Equal(t, 0, fd.FirstAddedLine())
}

func TestWindowAround(t *testing.T) {
	fd, err := ParseFile("app/user.go", sampleDiff)
	require.NoError(t, err)

	window := fd.WindowAround(13, 1)
	require.Len(t, window, 3)
	for _, l := range window {
		assert.NotEqual(t, LineRemoved, l.Kind)
		assert.InDelta(t, 13, l.Number, 1)
	}

	// A window far outside the hunk is empty.
	assert.Empty(t, fd.WindowAround(500, 3))
}

func TestSplitChangeset(t *testing.T) {
	text := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1,1 +1,2 @@
 keep
+added a
diff --git a/b.go b/b.go
--- a/b.go
+++ b/b.go
@@ -1,1 +1,2 @@
 keep
+added b
`
	changes := SplitChangeset(text)
	require.Len(t, changes, 2)
	assert.Equal(t, "a.go", changes[0].Path)
	assert.Equal(t, "b.go", changes[1].Path)
	assert.Contains(t, changes[0].Diff, "added a")
	assert.Contains(t, changes[1].Diff, "added b")
	assert.NotContains(t, changes[0].Diff, "added b")
}

func TestSplitChangeset_DeletionFallsBackToOldPath(t *testing.T) {
	text := `diff --git a/gone.go b/gone.go
deleted file mode 100644
--- a/gone.go
+++ /dev/null
@@ -1,1 +0,0 @@
-bye
`
	changes := SplitChangeset(text)
	require.Len(t, changes, 1)
	assert.Equal(t, "gone.go", changes[0].Path)
}

func TestSplitChangeset_Empty(t *testing.T) {
	assert.Nil(t, SplitChangeset(""))
	assert.Nil(t, SplitChangeset("   \n  "))
}
