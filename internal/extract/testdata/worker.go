package fixtures

import (
	"context"
	"fmt"
)

type Runner interface {
	Run(ctx context.Context) error
}

type Base struct{}

type Worker struct {
	Base
	name string
}

func (w *Worker) Run(ctx context.Context) error {
	logStart()
	w.flush()
	_, err := helper(ctx)
	return err
}

func (w *Worker) flush() {
	fmt.Println("flush", w.name)
}

func helper(ctx context.Context) (int, error) {
	fmt.Println("running")
	return 0, nil
}

func logStart() {
	fmt.Println("start")
}
