// Package workers implements the asynchronous click-recording pool that
// drains the redirect path's event channel.
package workers

import (
	"log"

	apperrors "github.com/linkak/linkak/internal/errors"
	"github.com/linkak/linkak/internal/models"
	"github.com/linkak/linkak/internal/repository"
)

// StartClickWorkers launches a pool of goroutines that persist click events
// without ever blocking a redirect. Each worker exits when the channel is
// closed.
func StartClickWorkers(workerCount int, clickEventsChan <-chan models.ClickEvent,
	clickRepo repository.ClickRepository, linkRepo repository.LinkRepository) {
	log.Printf("Starting %d click worker(s)...", workerCount)

	for i := 0; i < workerCount; i++ {
		go clickWorker(clickEventsChan, clickRepo, linkRepo)
	}
}

// clickWorker persists one event at a time. The Click row is written before
// the link's counter is incremented: if the process dies between the two,
// the counter undercounts — it can never claim a click that was not
// actually recorded.
func clickWorker(clickEventsChan <-chan models.ClickEvent,
	clickRepo repository.ClickRepository, linkRepo repository.LinkRepository) {
	for event := range clickEventsChan {
		click := &models.Click{
			LinkID:     event.LinkID,
			Timestamp:  event.Timestamp,
			Referrer:   event.Referrer,
			UserAgent:  event.UserAgent,
			IPAddress:  event.IPAddress,
			Country:    event.Country,
			City:       event.City,
			DeviceType: event.DeviceType,
			Browser:    event.Browser,
			OS:         event.OS,
		}

		if err := clickRepo.CreateClick(click); err != nil {
			log.Printf("ERROR: %v", apperrors.ErrClickRecordingFailed{
				LinkID: event.LinkID,
				Reason: err.Error(),
			})
			continue
		}

		if err := linkRepo.IncrementClickCount(event.LinkID); err != nil {
			// Undercount accepted; the Click row already exists.
			log.Printf("ERROR: Failed to increment click count for link %d: %v", event.LinkID, err)
		}
	}
}
