package dataset

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatcat/internal/models"
)

const sampleCSV = `Threat Category,Severity Score,Cleaned Threat Description
Phishing,3,"credential harvesting email, spoofed bank"
Malware,5,trojan dropped on endpoint
,1,row without a category
DDoS,2,
Malware,4,  worm   spreading over smb
`

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "threats.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestCSVSourceLoad(t *testing.T) {
	src := NewCSVSource(writeCSV(t, sampleCSV), "", "")

	ds, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Skipped)
	assert.Equal(t, []string{
		"credential harvesting email, spoofed bank",
		"trojan dropped on endpoint",
		"worm spreading over smb",
	}, ds.Texts())
	assert.Equal(t, []string{"Phishing", "Malware", "Malware"}, ds.Categories())
	assert.Equal(t, map[string]int{"Phishing": 1, "Malware": 2}, ds.CategoryCounts())
}

func TestCSVSourceCustomColumns(t *testing.T) {
	path := writeCSV(t, "label,body\nspam,buy now\n")
	ds, err := NewCSVSource(path, "body", "label").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Example{{Text: "buy now", Category: "spam"}}, ds.Examples)
}

func TestCSVSourceMissingColumn(t *testing.T) {
	path := writeCSV(t, "Threat Category,Description\nPhishing,x\n")
	_, err := NewCSVSource(path, "", "").Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), DefaultTextColumn)
}

func TestCSVSourceNoUsableRows(t *testing.T) {
	path := writeCSV(t, "Threat Category,Cleaned Threat Description\n,\n")
	_, err := NewCSVSource(path, "", "").Load(context.Background())
	assert.ErrorIs(t, err, models.ErrInvalidCorpus)
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), "", "").Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCSVSourceEmptyFile(t *testing.T) {
	_, err := NewCSVSource("mem", "", "").read(context.Background(), strings.NewReader(""))
	assert.Error(t, err)
}

func TestSQLSourceLoad(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE threats (id INTEGER PRIMARY KEY, description TEXT, category TEXT, score REAL);
		INSERT INTO threats (description, category, score) VALUES
			('ransom note on share', 'Ransomware', 9.5),
			('fake invoice link', 'Phishing', 6),
			(NULL, 'Phishing', 1),
			('syn flood', 'DDoS', 4);
	`)
	require.NoError(t, err)

	src := NewSQLSourceDB(db, "SELECT description, category, score FROM threats ORDER BY id")
	ds, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Skipped)
	assert.Equal(t, []string{"Ransomware", "Phishing", "DDoS"}, ds.Categories())
}

func TestSQLSourceNeedsTwoColumns(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLSourceDB(db, "SELECT 1").Load(context.Background())
	assert.Error(t, err)
}

func TestCSVSourceThreats(t *testing.T) {
	body := "Threat Category,Threat Actor,Severity Score,Word Count,Cleaned Threat Description\n" +
		"Phishing,APT-9,3,4,\"spoofed bank   login page\"\n" +
		"Malware,,n/a,,trojan dropped on endpoint\n" +
		",,1,,row without a category\n"
	src := NewCSVSource(writeCSV(t, body), "", "")

	threats, err := src.Threats(context.Background())
	require.NoError(t, err)
	require.Len(t, threats, 2)

	assert.Equal(t, "Phishing", threats[0].Category)
	assert.Equal(t, "spoofed bank login page", threats[0].Text)
	assert.Equal(t, "APT-9", threats[0].ThreatActor)
	assert.Equal(t, 3.0, threats[0].SeverityScore)
	assert.Equal(t, 4, threats[0].WordCount)

	assert.Zero(t, threats[1].SeverityScore, "unparsable score loads as zero")
	assert.Equal(t, 4, threats[1].WordCount, "missing word count is derived from the text")
	assert.Empty(t, threats[1].IOCs)
}

func TestCSVSourceThreatsErrors(t *testing.T) {
	_, err := NewCSVSource(writeCSV(t, "label,body\nspam,buy now\n"), "", "").Threats(context.Background())
	assert.ErrorContains(t, err, "not found")

	_, err = NewCSVSource(writeCSV(t, "Threat Category,Cleaned Threat Description\n,\n"), "", "").Threats(context.Background())
	assert.ErrorIs(t, err, models.ErrInvalidCorpus)
}
