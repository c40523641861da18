package models

import "time"

// Threat is one labeled row of the threat dataset, loaded by ingest for
// browsing. JSON names follow the dashboard's field names.
type Threat struct {
	ID                        int64     `db:"id" json:"id"`
	Category                  string    `db:"category" json:"threatCategory"`
	Text                      string    `db:"text" json:"cleanedText"`
	IOCs                      string    `db:"iocs" json:"iocs"`
	ThreatActor               string    `db:"threat_actor" json:"threatActor"`
	AttackVector              string    `db:"attack_vector" json:"attackVector"`
	Location                  string    `db:"location" json:"geographicalLocation"`
	Sentiment                 string    `db:"sentiment" json:"sentimentInForums"`
	SeverityScore             float64   `db:"severity_score" json:"severityScore"`
	PredictedCategory         string    `db:"predicted_category" json:"predictedThreatCategory"`
	SuggestedDefenseMechanism string    `db:"defense_mechanism" json:"suggestedDefenseMechanism"`
	RiskLevel                 string    `db:"risk_level" json:"riskLevelPrediction"`
	Keywords                  string    `db:"keywords" json:"keywordExtraction"`
	NamedEntities             string    `db:"named_entities" json:"namedEntities"`
	TopicLabels               string    `db:"topic_labels" json:"topicModelingLabels"`
	WordCount                 int       `db:"word_count" json:"wordCount"`
	CreatedAt                 time.Time `db:"created_at" json:"createdAt"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type SeverityCount struct {
	Severity float64 `json:"severity"`
	Count    int     `json:"count"`
}

// ThreatStats summarizes the ingested dataset.
type ThreatStats struct {
	Total          int             `json:"totalThreats"`
	CategoryCounts []CategoryCount `json:"categoryCounts"`
	SeverityCounts []SeverityCount `json:"severityCounts"`
}
