package output

import (
	"encoding/csv"
	stderrors "errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/models"
)

// Input columns.
const (
	ColumnRepoOwner = "RepoOwner"
	ColumnRepoName  = "RepoName"
)

// ReadCommunities reads a CSV community list. The header must name the
// RepoOwner and RepoName columns, in any order and case; other columns are
// ignored. Repeated communities are listed once.
func ReadCommunities(r io.Reader) ([]models.Community, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if stderrors.Is(err, io.EOF) {
		return nil, errors.ValidationError("community list is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.SeverityHigh, "failed to read community list header")
	}

	ownerCol, nameCol := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case strings.EqualFold(h, ColumnRepoOwner):
			ownerCol = i
		case strings.EqualFold(h, ColumnRepoName):
			nameCol = i
		}
	}
	if ownerCol < 0 || nameCol < 0 {
		return nil, errors.ValidationErrorf("community list header must contain %s and %s, got %v",
			ColumnRepoOwner, ColumnRepoName, header)
	}

	var communities []models.Community
	seen := make(map[models.Community]struct{})
	for {
		record, err := cr.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.SeverityHigh, "failed to read community list")
		}
		line, _ := cr.FieldPos(0)

		if ownerCol >= len(record) || nameCol >= len(record) {
			return nil, errors.ValidationErrorf("line %d: expected %s and %s columns", line, ColumnRepoOwner, ColumnRepoName)
		}
		c := models.Community{
			Owner: strings.TrimSpace(record[ownerCol]),
			Name:  strings.TrimSpace(record[nameCol]),
		}
		if c.Owner == "" && c.Name == "" {
			continue
		}
		if c.Owner == "" || c.Name == "" {
			return nil, errors.ValidationErrorf("line %d: owner and name must both be set", line)
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		communities = append(communities, c)
	}

	if len(communities) == 0 {
		return nil, errors.ValidationError("community list has no communities")
	}
	return communities, nil
}

// ReadCommunitiesFile reads a CSV community list from path.
func ReadCommunitiesFile(path string) ([]models.Community, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to open community list %s", path)
	}
	defer f.Close()
	return ReadCommunities(f)
}

// ResultHeader lists the result columns in order.
var ResultHeader = append([]string{
	ColumnRepoOwner, ColumnRepoName, "RunID",
	"CommonProjects", "PullReqInteraction", "Followers",
	"MeanGeographicalDistance", "Coordinates",
	"MembershipType", "Milestones", "Lifetime",
	"CommitterLongevity",
	"ActiveMembers", "Watchers", "Stargazers", "NrPullReqComments",
	"FileCollabDistribution", "CommitDistribution", "PullReqCommitDistribution",
	"Structure", "Dispersion", "Formality", "Engagement", "Longevity",
}, append(append([]string{}, models.PatternNames...), "Error")...)

// ResultWriter streams results as CSV rows, writing the header before the
// first row and flushing after every row. A community is written at most once.
type ResultWriter struct {
	w       *csv.Writer
	header  bool
	written map[models.Community]struct{}
}

// NewResultWriter creates a writer. Set header to false when appending to a
// file that already has one.
func NewResultWriter(w io.Writer, header bool) *ResultWriter {
	return &ResultWriter{
		w:       csv.NewWriter(w),
		header:  header,
		written: make(map[models.Community]struct{}),
	}
}

// Write appends one result.
func (rw *ResultWriter) Write(r models.Result) error {
	if _, dup := rw.written[r.Community]; dup {
		return errors.ValidationErrorf("result for %s already written", r.Community)
	}

	if rw.header {
		if err := rw.w.Write(ResultHeader); err != nil {
			return errors.FileSystemError(err, "failed to write result header")
		}
		rw.header = false
	}

	if err := rw.w.Write(resultRecord(r)); err != nil {
		return errors.FileSystemErrorf(err, "failed to write result for %s", r.Community)
	}
	rw.w.Flush()
	if err := rw.w.Error(); err != nil {
		return errors.FileSystemErrorf(err, "failed to write result for %s", r.Community)
	}

	rw.written[r.Community] = struct{}{}
	return nil
}

// WriteAll writes results in order, stopping at the first error.
func (rw *ResultWriter) WriteAll(results []models.Result) error {
	for _, r := range results {
		if err := rw.Write(r); err != nil {
			return err
		}
	}
	return nil
}

func resultRecord(r models.Result) []string {
	rec := make([]string, 0, len(ResultHeader))
	rec = append(rec, r.Community.Owner, r.Community.Name, r.RunID)

	if r.Failed() || r.Metrics == nil || r.Characteristics == nil || r.Pattern == nil {
		for len(rec) < len(ResultHeader)-1 {
			rec = append(rec, "")
		}
		return append(rec, r.Err)
	}

	m, c := r.Metrics, r.Characteristics
	rec = append(rec,
		formatBool(m.Structure.CommonProjects),
		formatBool(m.Structure.PullReqInteraction),
		formatBool(m.Structure.Followers),
		formatFloat(m.Dispersion.MeanGeographicalDistance),
		strconv.Itoa(m.Dispersion.Coordinates),
		formatFloat(m.Formality.MeanMembershipType),
		strconv.Itoa(m.Formality.Milestones),
		strconv.Itoa(m.Formality.Lifetime),
		formatFloat(m.Longevity.MeanCommitterLongevity),
		formatFloat(m.Engagement.MedianActiveMember),
		formatFloat(m.Engagement.MedianWatcher),
		formatFloat(m.Engagement.MedianStargazer),
		formatFloat(m.Engagement.MedianNrPullReqComments),
		formatFloat(m.Engagement.MedianFileCollabDistribution),
		formatFloat(m.Engagement.MedianCommitDistribution),
		formatFloat(m.Engagement.MedianMonthlyPullCommitCommentsDistribution),
		formatBool(c.Structure),
		formatFloat(c.Dispersion),
		formatFloat(c.Formality),
		formatFloat(c.Engagement),
		formatFloat(c.Longevity),
	)
	for _, flag := range r.Pattern.Flags() {
		rec = append(rec, formatBool(flag))
	}
	return append(rec, "")
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
