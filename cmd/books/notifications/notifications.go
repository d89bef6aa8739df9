package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type ErrNotificationFailed struct {
	statusCode int
}

func (e ErrNotificationFailed) Error() string {
	return fmt.Sprintf("ntfy wrong response - want: 200 OK, got: %d", e.statusCode)
}

func NewErrNotificationFailed(statusCode int) ErrNotificationFailed {
	return ErrNotificationFailed{statusCode: statusCode}
}

// Ntfy publishes book events to ntfy topics derived from baseURL.
type Ntfy struct {
	baseURL string
	enabled bool
	client  *http.Client
}

func NewNtfy(enableNotifications bool, notificationsBaseURL string, client *http.Client) *Ntfy {
	return &Ntfy{
		baseURL: notificationsBaseURL,
		enabled: enableNotifications,
		client:  client,
	}
}

func (ntf *Ntfy) BookAdded(ctx context.Context, id int, title string) error {
	return ntf.publish(ctx, "_Book_added", fmt.Sprintf("Book added: ID: %d Title: %s", id, title))
}

func (ntf *Ntfy) BookDeleted(ctx context.Context, id int) error {
	return ntf.publish(ctx, "_Book_deleted", fmt.Sprintf("Book deleted: ID: %d", id))
}

func (ntf *Ntfy) publish(ctx context.Context, topic, message string) error {
	if !ntf.enabled {
		return nil
	}

	topicURL := ntf.baseURL + topic
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, topicURL, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("error delivering message (%s) to topic (%s): %w", message, topicURL, err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := ntf.client.Do(req)
	if err != nil {
		return fmt.Errorf("error delivering message (%s) to topic (%s): %w", message, topicURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error delivering message (%s) to topic (%s): %w", message, topicURL, NewErrNotificationFailed(resp.StatusCode))
	}
	return nil
}
