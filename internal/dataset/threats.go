package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"threatcat/internal/models"
	"threatcat/internal/util"
)

// Optional columns of the full threat export. Missing ones load as empty.
const (
	columnIOCs              = "IOCs (Indicators of Compromise)"
	columnThreatActor       = "Threat Actor"
	columnAttackVector      = "Attack Vector"
	columnLocation          = "Geographical Location"
	columnSentiment         = "Sentiment in Forums"
	columnSeverityScore     = "Severity Score"
	columnPredictedCategory = "Predicted Threat Category"
	columnDefenseMechanism  = "Suggested Defense Mechanism"
	columnRiskLevel         = "Risk Level Prediction"
	columnKeywords          = "Keyword Extraction"
	columnNamedEntities     = "Named Entities (NER)"
	columnTopicLabels       = "Topic Modeling Labels"
	columnWordCount         = "Word Count"
)

// Threats reads every row of the file as a full threat record. Rows with
// an empty text or category are skipped, the same rows Load drops.
func (s *CSVSource) Threats(ctx context.Context) ([]*models.Threat, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return s.readThreats(ctx, f)
}

func (s *CSVSource) readThreats(ctx context.Context, r io.Reader) ([]*models.Threat, error) {
	cr, columns, err := s.header(r)
	if err != nil {
		return nil, err
	}
	textIdx, catIdx, err := s.labelColumns(columns)
	if err != nil {
		return nil, err
	}
	col := func(rec []string, name string) string {
		i, ok := columns[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(field(rec, i))
	}

	threats := []*models.Threat{}
	skipped := 0
	for row := 2; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Path, err)
		}

		src := fmt.Sprintf("%s row %d", s.Path, row)
		text := util.CleanText(field(rec, textIdx), src)
		category := util.CleanText(field(rec, catIdx), src)
		if text == "" || category == "" {
			skipped++
			continue
		}
		severity, err := strconv.ParseFloat(col(rec, columnSeverityScore), 64)
		if err != nil {
			severity = 0
		}
		words, err := strconv.Atoi(col(rec, columnWordCount))
		if err != nil {
			words = len(strings.Fields(text))
		}

		threats = append(threats, &models.Threat{
			Category:                  category,
			Text:                      text,
			IOCs:                      col(rec, columnIOCs),
			ThreatActor:               col(rec, columnThreatActor),
			AttackVector:              col(rec, columnAttackVector),
			Location:                  col(rec, columnLocation),
			Sentiment:                 col(rec, columnSentiment),
			SeverityScore:             severity,
			PredictedCategory:         col(rec, columnPredictedCategory),
			SuggestedDefenseMechanism: col(rec, columnDefenseMechanism),
			RiskLevel:                 col(rec, columnRiskLevel),
			Keywords:                  col(rec, columnKeywords),
			NamedEntities:             col(rec, columnNamedEntities),
			TopicLabels:               col(rec, columnTopicLabels),
			WordCount:                 words,
		})
	}

	if skipped > 0 {
		log.Warnf("%s: skipped %d row(s) with empty text or category", s.Path, skipped)
	}
	if len(threats) == 0 {
		return nil, fmt.Errorf("%w: %s has no usable rows", models.ErrInvalidCorpus, s.Path)
	}
	return threats, nil
}
