package notifier

import (
	"context"

	"github.com/sirupsen/logrus"
)

// DummyNotifier only writes messages to the log.
type DummyNotifier struct {
	log *logrus.Entry
}

func New(log *logrus.Logger) *DummyNotifier {
	return &DummyNotifier{
		log: log.WithField("component", "notifier"),
	}
}

func (n *DummyNotifier) Notify(_ context.Context, message string) error {
	n.log.Infof("notification: %s", message)
	return nil
}
