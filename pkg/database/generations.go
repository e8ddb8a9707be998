package database

import (
	"context"
	"fmt"
	"time"
)

// GenerationStatus is the enumerated set of outcomes a Generation
// Record may be persisted with.
type GenerationStatus string

const (
	StatusAccepted           GenerationStatus = "accepted"
	StatusAcceptedNeutral    GenerationStatus = "accepted_neutral"
	StatusRejectedRegression GenerationStatus = "rejected_regression"
	StatusRejectedValidation GenerationStatus = "rejected_validation"
	StatusError              GenerationStatus = "error"
)

// Generation is a persisted Generation Record.
type Generation struct {
	ID               int64            `json:"id"`
	GenerationNumber int64            `json:"generation_number"`
	TargetName       string           `json:"target_name"`
	Status           GenerationStatus `json:"status"`
	FitnessScore     float64          `json:"fitness_score"`
	ModelTag         string           `json:"model_tag"`
	TokensIn         int              `json:"tokens_in"`
	TokensOut        int              `json:"tokens_out"`
	Reasoning        string           `json:"reasoning"`
	OldSource        string           `json:"old_source,omitempty"`
	NewSource        string           `json:"new_source,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// InsertGeneration persists a new Generation Record. generation_number
// is unique; a duplicate insert surfaces as a constraint-violation
// error from the driver.
func (c *Client) InsertGeneration(ctx context.Context, g Generation) (int64, error) {
	const q = `
		INSERT INTO generations
			(generation_number, target_name, status, fitness_score, model_tag,
			 tokens_in, tokens_out, reasoning, old_source, new_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	var id int64
	err := c.Pool.QueryRow(ctx, q,
		g.GenerationNumber, g.TargetName, g.Status, g.FitnessScore, g.ModelTag,
		g.TokensIn, g.TokensOut, g.Reasoning, g.OldSource, g.NewSource,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("database: inserting generation: %w", err)
	}
	return id, nil
}

// GetGeneration fetches a single Generation Record by generation number.
func (c *Client) GetGeneration(ctx context.Context, number int64) (*Generation, error) {
	const q = `
		SELECT id, generation_number, target_name, status, fitness_score, model_tag,
		       tokens_in, tokens_out, reasoning, old_source, new_source, created_at, updated_at
		FROM generations
		WHERE generation_number = $1`

	var g Generation
	err := c.Pool.QueryRow(ctx, q, number).Scan(
		&g.ID, &g.GenerationNumber, &g.TargetName, &g.Status, &g.FitnessScore, &g.ModelTag,
		&g.TokensIn, &g.TokensOut, &g.Reasoning, &g.OldSource, &g.NewSource, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("database: fetching generation %d: %w", number, err)
	}
	return &g, nil
}

// ListGenerations returns the most recent generations, newest first,
// bounded by limit.
func (c *Client) ListGenerations(ctx context.Context, limit int) ([]Generation, error) {
	const q = `
		SELECT id, generation_number, target_name, status, fitness_score, model_tag,
		       tokens_in, tokens_out, reasoning, old_source, new_source, created_at, updated_at
		FROM generations
		ORDER BY generation_number DESC
		LIMIT $1`

	rows, err := c.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("database: listing generations: %w", err)
	}
	defer rows.Close()

	var out []Generation
	for rows.Next() {
		var g Generation
		if err := rows.Scan(
			&g.ID, &g.GenerationNumber, &g.TargetName, &g.Status, &g.FitnessScore, &g.ModelTag,
			&g.TokensIn, &g.TokensOut, &g.Reasoning, &g.OldSource, &g.NewSource, &g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("database: scanning generation row: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: iterating generation rows: %w", err)
	}
	return out, nil
}
