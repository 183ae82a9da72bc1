package pipeline

import (
	"fmt"

	"gamarr/internal/dedup"
	"gamarr/internal/models"
)

// Commit writes selected staged entries into the confirmed library. Only
// terminal, non-ignored entries qualify; error entries never commit. The
// committed id is the platform-qualified id when the candidate carries one,
// so later scans dedup against it, else the staged uuid.
func (p *Pipeline) Commit(ids []string) error {
	for _, id := range ids {
		staged, ok := p.queue.Get(id)
		if !ok {
			return fmt.Errorf("no staged game with id %s", id)
		}
		if staged.Ignored {
			return fmt.Errorf("staged game %s is ignored", id)
		}
		if !staged.Status.Terminal() || staged.Status == models.StatusError {
			return fmt.Errorf("staged game %s is not committable in status %s", id, staged.Status)
		}

		entryID := dedup.SynthesizeID(staged.Candidate)
		if entryID == "" {
			entryID = staged.ID
		}

		entry := &models.LibraryEntry{
			ID:           entryID,
			Title:        staged.Title,
			SourceKind:   staged.SourceKind,
			InstallPath:  staged.Candidate.InstallPath,
			ExePath:      staged.Candidate.ExecutablePath,
			LaunchArgs:   staged.Candidate.LaunchArgs,
			ProviderName: staged.ProviderName,
			ProviderID:   staged.ProviderID,
		}

		if err := p.db.CreateLibraryEntry(entry); err != nil {
			return fmt.Errorf("failed to commit %q: %w", staged.Title, err)
		}

		p.logger.WithFields(map[string]interface{}{
			"id":    entryID,
			"title": staged.Title,
		}).Info("Committed staged game to library")
	}

	return nil
}
