package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/idilsaglam/todosync/internal/apitest"
	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/store"
	"github.com/idilsaglam/todosync/internal/ui"
)

type demoStep string

const (
	stepTyping     demoStep = "typing"
	stepAdding     demoStep = "adding"
	stepCompleting demoStep = "completing"
	stepDeleting   demoStep = "deleting"
	stepResetting  demoStep = "resetting"
)

const (
	demoFirst  = "Complete project documentation"
	demoSecond = "Review code changes"
)

func doDemo(ctx context.Context, args []string, opt Options) int {
	fs := newFlags("demo")
	delay := fs.Duration("delay", 400*time.Millisecond, "pause between steps")
	local := fs.Bool("local", false, "run against an in-process backend")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	var b Backend
	if *local {
		srv := apitest.NewServer(apitest.Options{})
		defer srv.Close()
		cfg := opt.Config
		cfg.APIURL, cfg.Origin = srv.APIURL(), ""
		b = NewClient(cfg, opt.logger())
	} else {
		b = opt.backend()
	}

	st := store.New(b, store.WithLogger(opt.logger()))
	defer st.Close()
	d := &demo{st: st, delay: *delay, out: ui.Out()}
	if err := d.run(ctx); err != nil {
		_ = d.reset(context.WithoutCancel(ctx))
		return report(err, b.BaseURL())
	}
	ui.OK("demo finished")
	return 0
}

// demo replays the walkthrough: add an item, complete it, add a second one,
// delete it, then clean up.
type demo struct {
	st      *store.Store
	delay   time.Duration
	out     io.Writer
	created []int64
}

func (d *demo) run(ctx context.Context) error {
	first, err := d.add(ctx, demoFirst)
	if err != nil {
		return err
	}

	d.step(stepCompleting, demoFirst)
	if _, err := d.st.ToggleComplete(ctx, first.ID); err != nil {
		return err
	}
	d.show()
	if err := d.pause(ctx, 2); err != nil {
		return err
	}

	second, err := d.add(ctx, demoSecond)
	if err != nil {
		return err
	}

	d.step(stepDeleting, demoSecond)
	if err := d.st.Delete(ctx, second.ID); err != nil {
		return err
	}
	d.forget(second.ID)
	d.show()
	if err := d.pause(ctx, 2); err != nil {
		return err
	}

	d.step(stepResetting, "")
	return d.reset(ctx)
}

func (d *demo) add(ctx context.Context, desc string) (model.TodoItem, error) {
	d.step(stepTyping, "")
	if err := d.typeText(ctx, desc); err != nil {
		return model.TodoItem{}, err
	}
	d.step(stepAdding, desc)
	it, err := d.st.Create(ctx, model.CreateInput{Description: desc})
	if err != nil {
		return model.TodoItem{}, err
	}
	d.created = append(d.created, it.ID)
	d.show()
	return it, d.pause(ctx, 3)
}

// reset deletes whatever the demo created and is still around.
func (d *demo) reset(ctx context.Context) error {
	var first error
	for _, id := range d.created {
		if err := d.st.Delete(ctx, id); err != nil && !model.IsNotFound(err) && first == nil {
			first = err
		}
	}
	d.created = nil
	return first
}

func (d *demo) forget(id int64) {
	for i, c := range d.created {
		if c == id {
			d.created = append(d.created[:i], d.created[i+1:]...)
			return
		}
	}
}

func (d *demo) step(s demoStep, detail string) {
	label := ui.C(ui.Current().Accent, fmt.Sprintf("[%s]", s))
	if detail == "" {
		fmt.Fprintln(d.out, label)
		return
	}
	fmt.Fprintln(d.out, label, detail)
}

func (d *demo) show() {
	for _, ln := range flatLines(d.st.Snapshot().Todos) {
		fmt.Fprintln(d.out, "  "+ln)
	}
}

// typeText prints text one rune at a time like someone typing it.
func (d *demo) typeText(ctx context.Context, text string) error {
	fmt.Fprint(d.out, "  > ")
	perRune := d.delay / 10
	for _, r := range text {
		fmt.Fprint(d.out, string(r))
		if err := sleep(ctx, perRune); err != nil {
			fmt.Fprintln(d.out)
			return err
		}
	}
	fmt.Fprintln(d.out)
	return nil
}

func (d *demo) pause(ctx context.Context, n int) error {
	return sleep(ctx, time.Duration(n)*d.delay)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
