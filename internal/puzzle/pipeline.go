package puzzle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"triviaclash/internal/generator"
	"triviaclash/internal/models"
	"triviaclash/internal/repository"
)

// ErrExhausted indicates every content source failed for a position. No
// placeholder is acceptable, so the operation that needed the puzzle fails.
var ErrExhausted = errors.New("all content sources exhausted")

// bankDrawAttempts bounds random bank draws per source before moving on;
// a small bank full of duplicates should not spin forever.
const bankDrawAttempts = 3

// Supplier produces validated puzzles for room positions: normalize,
// validate, score, deduplicate, insert-if-absent, repair on read.
type Supplier struct {
	puzzles *repository.PuzzleRepository
	gen     generator.Provider

	qualityMinimum int
	maxGenAttempts int
}

// NewSupplier builds the supply pipeline over the puzzle repository and a
// provider fallback chain.
func NewSupplier(puzzles *repository.PuzzleRepository, gen generator.Provider, qualityMinimum, maxGenAttempts int) *Supplier {
	if qualityMinimum <= 0 {
		qualityMinimum = 85
	}
	if maxGenAttempts <= 0 {
		maxGenAttempts = 3
	}
	return &Supplier{
		puzzles:        puzzles,
		gen:            gen,
		qualityMinimum: qualityMinimum,
		maxGenAttempts: maxGenAttempts,
	}
}

// Ensure returns the validated puzzle at a position, producing one if the
// slot is empty. Safe to call concurrently for the same position: losers of
// the insert race converge on the winner's row. A stored payload that no
// longer passes structural checks is repaired in place, keeping the position
// and solver history.
func (s *Supplier) Ensure(ctx context.Context, room *models.Room, position int) (*Puzzle, error) {
	existing, err := s.puzzles.GetAssigned(room.ID, position)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read assigned puzzle: %w", err)
	}

	if existing != nil {
		stored, perr := Normalize(existing.PayloadJSON)
		if perr == nil && Validate(stored, room.Language, PurityRatio).Valid {
			return stored, nil
		}

		// On-demand repair: replace the payload, keep the position.
		log.Printf("supply: repairing invalid puzzle room=%d position=%d", room.ID, position)
		replacement, rerr := s.produce(ctx, room)
		if rerr != nil {
			return nil, rerr
		}
		payload, merr := json.Marshal(replacement)
		if merr != nil {
			return nil, merr
		}
		if uerr := s.puzzles.ReplacePayload(room.ID, position, string(payload)); uerr != nil {
			return nil, fmt.Errorf("repair puzzle: %w", uerr)
		}
		return replacement, nil
	}

	candidate, err := s.produce(ctx, room)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(candidate)
	if err != nil {
		return nil, err
	}

	inserted, err := s.puzzles.InsertAssignedIfAbsent(room.ID, position, string(payload))
	if err != nil {
		return nil, fmt.Errorf("insert assigned puzzle: %w", err)
	}
	if inserted {
		return candidate, nil
	}

	// Lost the race: free our reservation and read the winner.
	if rerr := s.puzzles.ReleaseFingerprint(Fingerprint(candidate)); rerr != nil {
		log.Printf("supply: release fingerprint: %v", rerr)
	}
	winner, err := s.puzzles.GetAssigned(room.ID, position)
	if err != nil {
		return nil, fmt.Errorf("read winning puzzle: %w", err)
	}
	return Normalize(winner.PayloadJSON)
}

// FillAsync populates positions [from, room.PuzzleCount) in the background,
// tolerating per-position failure. Unfilled positions are retried lazily
// when a participant's pointer actually reaches them.
func (s *Supplier) FillAsync(room *models.Room, from int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		for position := from; position < room.PuzzleCount; position++ {
			if _, err := s.Ensure(ctx, room, position); err != nil {
				log.Printf("supply: async fill failed room=%d position=%d: %v", room.ID, position, err)
			}
		}
	}()
}

// produce walks the content-source fallback order for the room and returns
// the first candidate that clears the full pipeline.
func (s *Supplier) produce(ctx context.Context, room *models.Room) (*Puzzle, error) {
	var sources []func(context.Context, *models.Room) (*Puzzle, error)

	switch room.SourceMode {
	case models.SourceGenerated:
		sources = []func(context.Context, *models.Room) (*Puzzle, error){
			s.fromGenerator, s.fromBank, s.fromBankAny, s.lastResortGeneration,
		}
	default: // bank
		sources = []func(context.Context, *models.Room) (*Puzzle, error){
			s.fromBank, s.fromGenerator, s.fromBankAny, s.lastResortGeneration,
		}
	}

	var errs []error
	for _, source := range sources {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		candidate, err := source(ctx, room)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return candidate, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrExhausted, errors.Join(errs...))
}

// fromGenerator asks the provider chain for candidates until one clears the
// strict pipeline: normalize, zero-tolerance validation, quality gate, dedup.
func (s *Supplier) fromGenerator(ctx context.Context, room *models.Room) (*Puzzle, error) {
	return s.generate(ctx, room, s.maxGenAttempts)
}

// lastResortGeneration is the final rung of the fallback ladder: one more
// generation attempt after the bank sources came up empty.
func (s *Supplier) lastResortGeneration(ctx context.Context, room *models.Room) (*Puzzle, error) {
	return s.generate(ctx, room, 1)
}

func (s *Supplier) generate(ctx context.Context, room *models.Room, attempts int) (*Puzzle, error) {
	var errs []error

	for attempt := 0; attempt < attempts; attempt++ {
		raw, err := s.gen.Generate(ctx, generator.Request{
			Language:   room.Language,
			Difficulty: room.Difficulty,
			Seed:       rand.Int63(),
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}

		candidate, err := Normalize(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if report := Validate(candidate, room.Language, PurityStrict); !report.Valid {
			errs = append(errs, fmt.Errorf("validation: %v", report.Errors))
			continue
		}

		if score := Score(candidate, room.Language, PurityStrict); score < s.qualityMinimum {
			errs = append(errs, fmt.Errorf("quality %d below minimum %d", score, s.qualityMinimum))
			continue
		}

		accepted, err := s.reserve(candidate, room)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !accepted {
			errs = append(errs, errors.New("duplicate content"))
			continue
		}

		if candidate.ID == "" {
			candidate.ID = uuid.NewString()
		}

		// Cache accepted generated content so future rooms can draw from
		// the bank instead of hitting the provider.
		if payload, merr := json.Marshal(candidate); merr == nil {
			if _, berr := s.puzzles.InsertBank(room.Language, room.Difficulty, string(payload)); berr != nil {
				log.Printf("supply: bank cache insert failed: %v", berr)
			}
		}

		return candidate, nil
	}

	return nil, fmt.Errorf("generation failed after %d attempts: %v", attempts, errors.Join(errs...))
}

// fromBank draws stored content matching the room's language and difficulty.
// Stored rows are held to the structural checks and the looser ratio purity.
func (s *Supplier) fromBank(_ context.Context, room *models.Room) (*Puzzle, error) {
	return s.drawBank(room, func() (*models.BankPuzzle, error) {
		return s.puzzles.RandomBank(room.Language, room.Difficulty)
	})
}

// fromBankAny draws stored content of any language or difficulty.
func (s *Supplier) fromBankAny(_ context.Context, room *models.Room) (*Puzzle, error) {
	return s.drawBank(room, func() (*models.BankPuzzle, error) {
		return s.puzzles.RandomBankAny()
	})
}

func (s *Supplier) drawBank(room *models.Room, draw func() (*models.BankPuzzle, error)) (*Puzzle, error) {
	var errs []error

	for attempt := 0; attempt < bankDrawAttempts; attempt++ {
		row, err := draw()
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, errors.New("bank empty")
			}
			return nil, fmt.Errorf("bank draw: %w", err)
		}

		candidate, err := Normalize(row.PayloadJSON)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if report := Validate(candidate, row.Language, PurityRatio); !report.Valid {
			errs = append(errs, fmt.Errorf("bank row %d: %v", row.ID, report.Errors))
			continue
		}

		accepted, err := s.reserve(candidate, room)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !accepted {
			errs = append(errs, fmt.Errorf("bank row %d already served", row.ID))
			continue
		}

		return candidate, nil
	}

	return nil, fmt.Errorf("bank draws exhausted: %v", errors.Join(errs...))
}

// reserve claims the candidate's fingerprint ahead of insertion so two
// concurrent fillers cannot both push the same content.
func (s *Supplier) reserve(candidate *Puzzle, room *models.Room) (bool, error) {
	return s.puzzles.ReserveFingerprint(Fingerprint(candidate), room.ID)
}
