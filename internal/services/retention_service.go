package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/ijuchazara/bitworks-message/internal/repository"
	"github.com/ijuchazara/bitworks-message/pkg/debug"
)

const defaultHistoryDays = 30

// RetentionService prunes conversations (and their messages) older than the
// history window configured in the history_days setting. Deletion happens on a
// schedule; until the purge runs, older conversations remain readable.
type RetentionService struct {
	settingRepo *repository.SettingRepository
	convRepo    *repository.ConversationRepository
	scheduler   *cron.Cron
}

// NewRetentionService creates a new RetentionService.
func NewRetentionService(sr *repository.SettingRepository, vr *repository.ConversationRepository) *RetentionService {
	return &RetentionService{
		settingRepo: sr,
		convRepo:    vr,
		scheduler:   cron.New(),
	}
}

// Start schedules the nightly purge. The schedule accepts a cron expression, with
// "@daily" as the sensible default from the caller.
func (s *RetentionService) Start(schedule string) error {
	_, err := s.scheduler.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.PurgeOldConversations(ctx); err != nil {
			debug.Error("Conversation retention purge failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.scheduler.Start()
	debug.Info("Conversation retention purge scheduled (%s)", schedule)
	return nil
}

// Stop halts the scheduler, waiting for a running purge to finish.
func (s *RetentionService) Stop() {
	<-s.scheduler.Stop().Done()
}

// HistoryDays returns the configured history window, falling back to the
// default when the setting is missing or unparseable.
func (s *RetentionService) HistoryDays(ctx context.Context) int {
	setting, err := s.settingRepo.Get(ctx, models.SettingHistoryDays)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			debug.Warning("Failed to read %s setting: %v", models.SettingHistoryDays, err)
		}
		return defaultHistoryDays
	}

	days, err := strconv.Atoi(setting.Value)
	if err != nil || days <= 0 {
		debug.Warning("Invalid %s setting value '%s', using default %d",
			models.SettingHistoryDays, setting.Value, defaultHistoryDays)
		return defaultHistoryDays
	}
	return days
}

// PurgeOldConversations removes conversations created before the history
// window.
func (s *RetentionService) PurgeOldConversations(ctx context.Context) error {
	days := s.HistoryDays(ctx)
	cutoff := time.Now().AddDate(0, 0, -days)

	deleted, err := s.convRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		debug.Info("Purged %d conversations older than %d days", deleted, days)
	}
	return nil
}
