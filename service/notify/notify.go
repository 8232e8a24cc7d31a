// Package notify is the boundary to the notification collaborator: the
// lifecycle engine only reports that copies of a DVD are rentable again;
// template rendering and delivery live on the other side of the webhook.
package notify

import (
	"context"
	"log/slog"
	"time"

	"dvdrental/model"
	"dvdrental/util/httpx"
)

type Notifier interface {
	DvdAvailable(ctx context.Context, dvd *model.Dvd)
}

type webhook struct {
	url string
	log *slog.Logger
}

// NewWebhook posts availability events to url. With an empty url events are
// only logged, which keeps local development working without a receiver.
func NewWebhook(url string, log *slog.Logger) Notifier {
	return &webhook{url: url, log: log}
}

type availableEvent struct {
	Event    string `json:"event"`
	DvdID    int64  `json:"dvd_id"`
	DvdTitle string `json:"dvd_title"`
}

func (w *webhook) DvdAvailable(ctx context.Context, dvd *model.Dvd) {
	if w.url == "" {
		w.log.Info("dvd available again", "dvd_id", dvd.ID, "title", dvd.Title)
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	ev := availableEvent{Event: "dvd_available", DvdID: dvd.ID, DvdTitle: dvd.Title}
	if err := httpx.PostJSON(sendCtx, w.url, ev); err != nil {
		w.log.Warn("availability notification failed", "dvd_id", dvd.ID, "err", err)
	}
}
