package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/iho/txsummary/internal/domain"
)

type ackRecorder struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func delivery(t *testing.T, ack *ackRecorder, body []byte, redelivered bool) amqp091.Delivery {
	t.Helper()
	return amqp091.Delivery{Acknowledger: ack, Body: body, Redelivered: redelivered}
}

func jobBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(&domain.ImportJob{
		ID:          "job-1",
		AccountID:   "A1",
		FileName:    "jan.csv",
		Content:     []byte("2024-01-01,10\n"),
		SubmittedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestHandleDelivery(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		handlerErr  error
		wantAck     bool
		wantRequeue bool
		wantHandled bool
	}{
		{name: "success", wantAck: true, wantHandled: true},
		{name: "transient failure requeues", handlerErr: errors.New("db down"), wantRequeue: true, wantHandled: true},
		{name: "second failure drops", redelivered: true, handlerErr: errors.New("db down"), wantHandled: true},
		{name: "permanent failure drops", handlerErr: Permanent(domain.ErrAccountNotFound), wantHandled: true},
		{name: "malformed body drops", body: []byte("{nope")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == nil {
				body = jobBody(t)
			}

			ack := &ackRecorder{}
			called := false
			handleDelivery(context.Background(), delivery(t, ack, body, tt.redelivered), func(ctx context.Context, job *domain.ImportJob) error {
				called = true
				if job.ID != "job-1" || string(job.Content) != "2024-01-01,10\n" {
					t.Fatalf("unexpected job: %+v", job)
				}
				return tt.handlerErr
			})

			if called != tt.wantHandled {
				t.Fatalf("handler called = %v, want %v", called, tt.wantHandled)
			}
			if ack.acked != tt.wantAck {
				t.Fatalf("acked = %v, want %v", ack.acked, tt.wantAck)
			}
			if !tt.wantAck && !ack.nacked {
				t.Fatal("expected nack")
			}
			if ack.requeued != tt.wantRequeue {
				t.Fatalf("requeued = %v, want %v", ack.requeued, tt.wantRequeue)
			}
		})
	}
}

func TestPermanent(t *testing.T) {
	if Permanent(nil) != nil {
		t.Fatal("Permanent(nil) must be nil")
	}

	err := fmt.Errorf("import: %w", Permanent(domain.ErrBadStatement))
	if !IsPermanent(err) {
		t.Fatal("expected wrapped permanent error to be detected")
	}
	if !errors.Is(err, domain.ErrBadStatement) {
		t.Fatal("expected cause to stay reachable")
	}
	if IsPermanent(errors.New("plain")) {
		t.Fatal("plain error is not permanent")
	}
}

func TestDialRejectsBadURL(t *testing.T) {
	if _, err := Dial(context.Background(), "http://not-amqp", "q", 1, time.Millisecond); err == nil {
		t.Fatal("expected error for non-amqp url")
	}
}
