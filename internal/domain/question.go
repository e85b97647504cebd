package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Common validation errors for Question
var (
	ErrEmptyQuestionContent = errors.New("question content cannot be empty")
	ErrEmptyQuestionType    = errors.New("question type cannot be empty")
	ErrEmptyCorrectAnswer   = errors.New("question correct answer cannot be empty")
)

// Question is a single quiz question, optionally attached to a Category.
// Options are stored as a JSON-encoded ordered list, defaulting to empty.
type Question struct {
	ID            int64    `json:"id"`
	Content       string   `json:"content"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	CategoryID    *int64   `json:"category_id,omitempty"`

	// CategoryName is populated on reads that join the categories table.
	// It is never written back to the store.
	CategoryName string `json:"category_name,omitempty"`
}

// NewQuestion creates a Question with the given fields. Options may be nil,
// in which case the stored list is empty. Returns an error if validation fails.
func NewQuestion(
	content, questionType, correctAnswer string,
	options []string,
	categoryID *int64,
) (*Question, error) {
	question := &Question{
		Content:       content,
		Type:          questionType,
		Options:       options,
		CorrectAnswer: correctAnswer,
		CategoryID:    categoryID,
	}

	if err := question.Validate(); err != nil {
		return nil, err
	}

	return question, nil
}

// Validate checks that required fields are present.
func (q *Question) Validate() error {
	if q.Content == "" {
		return ErrEmptyQuestionContent
	}
	if q.Type == "" {
		return ErrEmptyQuestionType
	}
	if q.CorrectAnswer == "" {
		return ErrEmptyCorrectAnswer
	}
	return nil
}

// EncodeOptions serializes the options list for storage. A nil slice encodes
// as an empty JSON array so a round-trip always yields a decodable list.
func (q *Question) EncodeOptions() ([]byte, error) {
	options := q.Options
	if options == nil {
		options = []string{}
	}

	encoded, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return encoded, nil
}

// DecodeOptions restores the options list from its stored JSON form.
// Empty input decodes to an empty list.
func (q *Question) DecodeOptions(raw []byte) error {
	if len(raw) == 0 {
		q.Options = []string{}
		return nil
	}

	var options []string
	if err := json.Unmarshal(raw, &options); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if options == nil {
		options = []string{}
	}

	q.Options = options
	return nil
}
