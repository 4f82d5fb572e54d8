package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"technowear/internal/domain"
	"technowear/internal/validate"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GoalView is a goal with its derived progress.
type GoalView struct {
	domain.FitnessGoal
	ProgressPct float64 `json:"progressPct"`
}

// GoalService encapsulates fitness goal use cases.
type GoalService struct {
	repo domain.GoalRepository
	feed domain.ChangeFeed
	log  *zap.SugaredLogger
	now  func() time.Time
}

// NewGoalService creates a GoalService backed by the given repository.
func NewGoalService(repo domain.GoalRepository, feed domain.ChangeFeed, log *zap.SugaredLogger) *GoalService {
	return &GoalService{repo: repo, feed: feed, log: log, now: time.Now}
}

func defaultGoals() []domain.FitnessGoal {
	return []domain.FitnessGoal{
		{Title: "Walk 10,000 Steps Daily", TargetValue: 10000, CurrentValue: 4523, Type: domain.GoalSteps},
		{Title: "Improve Recovery Score to 85", TargetValue: 85, CurrentValue: 78, Type: domain.GoalRecovery},
		{Title: "Lower Stress Below 30%", TargetValue: 30, CurrentValue: 35, Type: domain.GoalStress},
	}
}

// List returns the user's goals newest first, seeding the defaults for a user
// that has none.
func (s *GoalService) List(ctx context.Context, userID string) ([]GoalView, error) {
	goals, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		now := s.now().UTC()
		for i, g := range defaultGoals() {
			g.ID = uuid.NewString()
			g.UserID = userID
			// Keep the seeded order stable under newest-first listing.
			g.CreatedAt = now.Add(-time.Duration(i) * time.Millisecond)
			if _, err := s.repo.InsertGoal(ctx, g); err != nil {
				return nil, err
			}
		}
		if goals, err = s.repo.ListGoals(ctx, userID); err != nil {
			return nil, err
		}
	}
	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalView{FitnessGoal: g, ProgressPct: g.Progress()})
	}
	return out, nil
}

// Add validates and stores a custom goal. targetRaw is the raw form value.
func (s *GoalService) Add(ctx context.Context, userID, title, targetRaw string) (domain.FitnessGoal, error) {
	target, err := strconv.ParseInt(strings.TrimSpace(targetRaw), 10, 64)
	if err != nil {
		return domain.FitnessGoal{}, &validate.Error{Field: "targetValue", Tag: "number", Message: "Please enter a valid number"}
	}
	form := GoalForm{Title: strings.TrimSpace(title), Target: target}
	if err := validate.First(&form); err != nil {
		return domain.FitnessGoal{}, err
	}
	g, err := s.repo.InsertGoal(ctx, domain.FitnessGoal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       form.Title,
		TargetValue: form.Target,
		Type:        domain.GoalCustom,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return domain.FitnessGoal{}, fail(MsgAddGoal, err)
	}
	s.publish(ctx, domain.ChangeInsert, userID, g.ID)
	return g, nil
}

// Toggle flips the completion flag of a goal.
func (s *GoalService) Toggle(ctx context.Context, userID, goalID string) (domain.FitnessGoal, error) {
	g, err := s.repo.GetGoal(ctx, userID, goalID)
	if err != nil {
		return domain.FitnessGoal{}, err
	}
	if g == nil {
		return domain.FitnessGoal{}, ErrNotFound
	}
	g.Completed = !g.Completed
	if err := s.repo.SetGoalCompleted(ctx, userID, goalID, g.Completed); err != nil {
		return domain.FitnessGoal{}, err
	}
	s.publish(ctx, domain.ChangeUpdate, userID, goalID)
	return *g, nil
}

func (s *GoalService) publish(ctx context.Context, kind domain.ChangeKind, userID, rowID string) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, domain.Change{Table: domain.TableGoals, Kind: kind, UserID: userID, RowID: rowID}); err != nil {
		s.log.Warnw("publish goal change failed", "user", userID, "row", rowID, "error", err)
	}
}
