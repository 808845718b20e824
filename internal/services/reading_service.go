package services

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/datatypes"

	"arcanum/internal/models/db_models"
	"arcanum/internal/models/response_models"
	"arcanum/internal/repositories"
	"arcanum/pkg/logger"
	"arcanum/pkg/tarot"
	"arcanum/pkg/tiers"
	"arcanum/pkg/utils"
)

const readingHistoryLimit = 50

// interpretTimeout bounds the AI call; a slow model degrades to a reading
// without interpretation, never to a failed draw.
const interpretTimeout = 20 * time.Second

type ReadingServiceInterface interface {
	// ListSpreads returns every spread, marking the ones above the
	// account's tier as locked.
	ListSpreads(ctx context.Context, accountID uuid.UUID) ([]response_models.SpreadResponse, error)

	// Draw performs a reading. When the account's tier does not cover the
	// spread the result carries the upgrade prompt instead of a reading.
	Draw(ctx context.Context, accountID uuid.UUID, spreadID, question string) (*response_models.DrawResult, error)

	History(ctx context.Context, accountID uuid.UUID) ([]response_models.ReadingResponse, error)
}

type ReadingService struct {
	entitlements EntitlementServiceInterface
	readingRepo  repositories.IReadingRepository
	interpreter  utils.Interpreter
	logger       *logger.Logger
}

func NewReadingService(
	entitlements EntitlementServiceInterface,
	readingRepo repositories.IReadingRepository,
	interpreter utils.Interpreter,
	log *logger.Logger,
) ReadingServiceInterface {
	return &ReadingService{
		entitlements: entitlements,
		readingRepo:  readingRepo,
		interpreter:  interpreter,
		logger:       log,
	}
}

func (s *ReadingService) ListSpreads(ctx context.Context, accountID uuid.UUID) ([]response_models.SpreadResponse, error) {
	tier, err := s.entitlements.CurrentTier(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return lo.Map(tarot.Spreads(), func(spread tarot.Spread, _ int) response_models.SpreadResponse {
		required, _ := s.entitlements.RequiredTier(tiers.Feature(spread.ID))
		return response_models.SpreadResponse{
			ID:           spread.ID,
			Name:         spread.Name,
			Positions:    spread.Positions,
			RequiredTier: string(required),
			Locked:       !tier.AtLeast(required),
		}
	}), nil
}

func (s *ReadingService) Draw(ctx context.Context, accountID uuid.UUID, spreadID, question string) (*response_models.DrawResult, error) {
	spread, ok := tarot.SpreadByID(spreadID)
	if !ok {
		return nil, utils.ErrSpreadNotFound
	}

	access, err := s.entitlements.CheckAccess(ctx, accountID, tiers.Feature(spread.ID))
	if err != nil {
		return nil, err
	}
	result := &response_models.DrawResult{
		Access: response_models.AccessResponse{
			Allowed:      access.Allowed,
			CurrentTier:  string(access.CurrentTier),
			RequiredTier: string(access.RequiredTier),
		},
	}
	if !access.Allowed {
		return result, nil
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	cards := tarot.Draw(spread, rng)

	reading := &db_models.Reading{
		AccountID: accountID,
		SpreadID:  spread.ID,
		Question:  question,
	}
	raw, err := json.Marshal(cards)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	reading.Cards = datatypes.JSON(raw)

	if interpretation := s.interpret(ctx, accountID, spread, question, cards); interpretation != "" {
		reading.Interpretation = &interpretation
	}

	// History is a paid feature; free draws are returned but not retained.
	historyAccess, err := s.entitlements.CheckAccess(ctx, accountID, tiers.FeatureReadingHistory)
	if err != nil {
		return nil, err
	}
	if historyAccess.Allowed {
		if err := s.readingRepo.Insert(ctx, reading); err != nil {
			return nil, utils.ErrDatabaseError
		}
	}

	result.Reading = readingResponse(reading, spread.Name, cards)
	return result, nil
}

// interpret runs the AI interpretation for entitled tiers. Failures are
// logged and swallowed.
func (s *ReadingService) interpret(ctx context.Context, accountID uuid.UUID, spread tarot.Spread, question string, cards []tarot.DrawnCard) string {
	if s.interpreter == nil {
		return ""
	}
	access, err := s.entitlements.CheckAccess(ctx, accountID, tiers.FeatureAIInterpretation)
	if err != nil || !access.Allowed {
		return ""
	}

	cardNames := lo.Map(cards, func(c tarot.DrawnCard, _ int) string {
		name := c.Position + ": " + c.Card.Name
		if c.Reversed {
			name += " (reversed)"
		}
		return name
	})

	ictx, cancel := context.WithTimeout(ctx, interpretTimeout)
	defer cancel()
	text, err := s.interpreter.Interpret(ictx, spread.Name, question, cardNames)
	if err != nil {
		s.logger.Warnw("interpretation failed", "spread_id", spread.ID, "error", err)
		return ""
	}
	return text
}

func (s *ReadingService) History(ctx context.Context, accountID uuid.UUID) ([]response_models.ReadingResponse, error) {
	access, err := s.entitlements.CheckAccess(ctx, accountID, tiers.FeatureReadingHistory)
	if err != nil {
		return nil, err
	}
	if !access.Allowed {
		return nil, utils.ErrForbidden
	}

	readings, err := s.readingRepo.ListByAccount(ctx, accountID, readingHistoryLimit)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	out := make([]response_models.ReadingResponse, 0, len(readings))
	for i := range readings {
		r := &readings[i]
		var cards []tarot.DrawnCard
		if err := json.Unmarshal(r.Cards, &cards); err != nil {
			s.logger.Warnw("corrupt reading row skipped", "reading_id", r.ID, "error", err)
			continue
		}
		spreadName := r.SpreadID
		if spread, ok := tarot.SpreadByID(r.SpreadID); ok {
			spreadName = spread.Name
		}
		out = append(out, *readingResponse(r, spreadName, cards))
	}
	return out, nil
}

func readingResponse(r *db_models.Reading, spreadName string, cards []tarot.DrawnCard) *response_models.ReadingResponse {
	resp := &response_models.ReadingResponse{
		ID:         r.ID,
		SpreadID:   r.SpreadID,
		SpreadName: spreadName,
		Question:   r.Question,
		Cards:      cards,
		CreatedAt:  r.CreatedAt,
	}
	if r.Interpretation != nil {
		resp.Interpretation = *r.Interpretation
	}
	return resp
}
