package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"BizCard/internal/cli/repo"

	"go.uber.org/zap"
)

type imageOpKind int

const (
	opPut imageOpKind = iota
	opDelete
	opBarrier
)

type imageOp struct {
	kind    imageOpKind
	id      string
	payload string
	done    chan struct{} // только для opBarrier
}

// imageWriter — единственный писатель в хранилище картинок.
// Операции выполняются строго в порядке постановки, поэтому put и delete
// одного id не переставляются. Вызывающий не ждёт результата: ошибки логируются
// и накапливаются до Drain.
type imageWriter struct {
	images  repo.ImageRepository
	log     *zap.SugaredLogger
	timeout time.Duration

	mu     sync.Mutex
	queue  []imageOp
	wake   chan struct{}
	closed bool
	errs   []error
	done   chan struct{}
}

func newImageWriter(images repo.ImageRepository, log *zap.SugaredLogger, timeout time.Duration) *imageWriter {
	w := &imageWriter{
		images:  images,
		log:     log,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *imageWriter) Put(id, payload string) bool {
	return w.enqueue(imageOp{kind: opPut, id: id, payload: payload})
}

func (w *imageWriter) Delete(id string) bool {
	return w.enqueue(imageOp{kind: opDelete, id: id})
}

// Wait блокируется, пока не выполнятся все поставленные ранее операции.
func (w *imageWriter) Wait(ctx context.Context) error {
	done := make(chan struct{})
	if !w.enqueue(imageOp{kind: opBarrier, done: done}) {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain закрывает очередь, дожидается её опустошения и возвращает накопленные ошибки.
func (w *imageWriter) Drain() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		w.signal()
	}
	w.mu.Unlock()
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.errs...)
}

func (w *imageWriter) enqueue(op imageOp) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.queue = append(w.queue, op)
	w.signal()
	return true
}

// signal вызывается под w.mu.
func (w *imageWriter) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *imageWriter) loop() {
	defer close(w.done)
	for {
		w.mu.Lock()
		batch := w.queue
		w.queue = nil
		closed := w.closed
		w.mu.Unlock()

		for _, op := range batch {
			w.apply(op)
		}
		if len(batch) == 0 {
			if closed {
				return
			}
			<-w.wake
		}
	}
}

func (w *imageWriter) apply(op imageOp) {
	if op.kind == opBarrier {
		close(op.done)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	var err error
	switch op.kind {
	case opPut:
		err = w.images.Put(ctx, op.id, op.payload)
	case opDelete:
		err = w.images.Delete(ctx, op.id)
	}
	if err != nil {
		w.log.Errorw("image store write failed", "card_id", op.id, "op", opName(op.kind), "error", err)
		w.mu.Lock()
		w.errs = append(w.errs, err)
		w.mu.Unlock()
	}
}

func opName(k imageOpKind) string {
	switch k {
	case opPut:
		return "put"
	case opDelete:
		return "delete"
	default:
		return "barrier"
	}
}
