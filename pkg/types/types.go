// Package types defines the record types shared by every component of the
// knowledge acquisition core: topics, knowledge items, related-topic edges,
// user-query feedback, and learning sessions.
package types

import "time"

// TopicSource identifies where a Topic originated from. It replaces the
// duck-typed source strings the original system used for routing.
type TopicSource string

const (
	SourceDictionary TopicSource = "dictionary"
	SourceUserQuery  TopicSource = "user_query"
	SourceTrending   TopicSource = "trending"
	SourceDiscovered TopicSource = "discovered"
	SourceManual     TopicSource = "manual"
)

// TopicStatus is the lifecycle state of a Topic.
type TopicStatus string

const (
	StatusPending    TopicStatus = "pending"
	StatusInProgress TopicStatus = "in_progress"
	StatusCrawled    TopicStatus = "crawled"
	StatusNoResults  TopicStatus = "no_results"
	StatusError      TopicStatus = "error"
)

// Topic is a unit of research work.
type Topic struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Category       string      `json:"category,omitempty"`
	Source         TopicSource `json:"source"`
	Priority       int         `json:"priority"`
	Status         TopicStatus `json:"status"`
	Attempts       int         `json:"attempts"`
	LastError      string      `json:"last_error,omitempty"`
	KnowledgeCount int         `json:"knowledge_count"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// AdapterName identifies the source adapter that produced a KnowledgeItem.
type AdapterName string

const (
	AdapterEncyclopedia AdapterName = "encyclopedia"
	AdapterEngineA      AdapterName = "engine_a"
	AdapterEngineB      AdapterName = "engine_b"
	AdapterEngineC      AdapterName = "engine_c"
	AdapterPaid         AdapterName = "paid_search"
)

// KnowledgeItem is a normalized, stored snippet attached to a Topic.
type KnowledgeItem struct {
	ID            string      `json:"id"`
	TopicID       string      `json:"topic_id"`
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	SourceAdapter AdapterName `json:"source_adapter"`
	URL           string      `json:"url,omitempty"`
	Confidence    float64     `json:"confidence"`
	Fingerprint   string      `json:"fingerprint"`
	LearnedAt     time.Time   `json:"learned_at"`
}

// RelatedTopicEdge links a topic to a discovered related topic name.
type RelatedTopicEdge struct {
	FromTopicID string    `json:"from_topic_id"`
	ToTopicName string    `json:"to_topic_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserQueryRecord is an append-only feedback signal from consumers of the
// answer-shaping layer, used by the Topic Scheduler to up-weight
// user-driven discovery.
type UserQueryRecord struct {
	ID                string    `json:"id"`
	QueryText         string    `json:"query_text"`
	ExtractedTopics   []string  `json:"extracted_topics"`
	KnowledgeWasFound bool      `json:"knowledge_was_found"`
	NeedsResearch     bool      `json:"needs_research"`
	RecordedAt        time.Time `json:"recorded_at"`
}

// LearningSession is a process-lifetime record of throughput counters.
type LearningSession struct {
	ID                  string     `json:"id"`
	StartedAt           time.Time  `json:"started_at"`
	EndedAt             *time.Time `json:"ended_at,omitempty"`
	Aborted             bool       `json:"aborted,omitempty"`
	TopicsCrawled       int        `json:"topics_crawled"`
	KnowledgeItemsAdded int        `json:"knowledge_items_added"`
	ErrorsEncountered   int        `json:"errors_encountered"`
}

// RawCandidate is an unranked, not-yet-stored knowledge item returned by an
// adapter. It is discarded after each query once it has been normalized,
// merged, and (if accepted) handed to the Knowledge Store.
type RawCandidate struct {
	Title         string
	Content       string
	URL           string
	SourceAdapter AdapterName
	Confidence    float64
	PublishedAt   *time.Time
	AdapterIndex  int // position returned by the adapter, used as a stable tiebreak
}

// ScoredCandidate is a RawCandidate after normalization and reranking.
type ScoredCandidate struct {
	RawCandidate
	Score       float64
	Fingerprint string
}

// DatabaseStats summarizes the Knowledge Store's contents for operators.
type DatabaseStats struct {
	TotalTopics           int `json:"total_topics"`
	TotalKnowledgeItems   int `json:"total_knowledge_items"`
	TopicsCrawledLast24h  int `json:"topics_crawled_last_24h"`
	KnowledgeAddedLast24h int `json:"knowledge_added_last_24h"`
	PendingTopics         int `json:"pending_topics"`
	InProgressTopics      int `json:"in_progress_topics"`
	ErrorTopics           int `json:"error_topics"`
}

// SessionStats is the subset of LearningSession exposed for status reporting.
type SessionStats struct {
	ID                string `json:"id"`
	Running           bool   `json:"running"`
	Paused            bool   `json:"paused"`
	ConsecutiveErrors int    `json:"consecutive_errors"`
	TopicsCrawled     int    `json:"topics_crawled"`
	KnowledgeAdded    int    `json:"knowledge_items_added"`
	ErrorsEncountered int    `json:"errors_encountered"`
}

// Stats is the top-level status document returned by the lifecycle
// controller's GetStats and printed by `thorlearn status`.
type Stats struct {
	Database DatabaseStats `json:"database_stats"`
	Session  SessionStats  `json:"session"`
}
