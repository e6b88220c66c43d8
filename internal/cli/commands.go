package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/store"
	"github.com/idilsaglam/todosync/internal/ui"
)

const confirmDelete = "Are you sure you want to delete this TODO item?"

// itemFlags are the optional fields shared by add and edit.
type itemFlags struct {
	priority  string
	due       string
	category  string
	completed bool
}

func (f *itemFlags) register(fs *flag.FlagSet, withCompleted bool) {
	fs.StringVar(&f.priority, "priority", "", "Low, Medium or High")
	fs.StringVar(&f.due, "due", "", "due date, YYYY-MM-DD")
	fs.StringVar(&f.category, "category", "", "free-form category")
	if withCompleted {
		fs.BoolVar(&f.completed, "completed", false, "mark completed or pending")
	}
}

func doList(ctx context.Context, args []string, opt Options) int {
	fs := newFlags("ls")
	onlyDone := fs.Bool("completed", false, "only completed items")
	onlyPending := fs.Bool("pending", false, "only pending items")
	priority := fs.String("priority", "", "only this priority")
	category := fs.String("category", "", "only this category")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if *onlyDone && *onlyPending {
		ui.Fail("ls: -completed and -pending are mutually exclusive")
		return 2
	}

	var f model.Filter
	if *onlyDone || *onlyPending {
		c := *onlyDone
		f.Completed = &c
	}
	if *priority != "" {
		p, err := model.ParsePriority(*priority)
		if err != nil {
			ui.Fail("ls: " + err.Error())
			return 2
		}
		f.Priority = &p
	}
	if c := strings.TrimSpace(*category); c != "" {
		f.Category = &c
	}

	b := opt.backend()
	st, err := store.Open(ctx, b, store.WithLogger(opt.logger()), store.WithFilter(f))
	defer st.Close()
	if err != nil {
		return report(err, b.BaseURL())
	}
	ui.Panel(listPanel(st.Snapshot().Todos, opt.Group))
	return 0
}

func doShow(ctx context.Context, args []string, opt Options) int {
	fs := newFlags("show")
	id, _, code, ok := parseWithID(fs, "todo show <id>", args)
	if !ok {
		return code
	}
	b := opt.backend()
	it, err := b.GetTodo(ctx, id)
	if err != nil {
		return report(err, b.BaseURL())
	}
	ui.Panel(detailLines(it))
	return 0
}

func doAdd(ctx context.Context, args []string, opt Options) int {
	fs := newFlags("add")
	var f itemFlags
	f.register(fs, false)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 0 {
		ui.Fail("usage: todo add [-priority P] [-due YYYY-MM-DD] [-category C] <description...>")
		return 2
	}

	in := model.CreateInput{Description: strings.Join(fs.Args(), " ")}
	if f.priority != "" {
		p, err := model.ParsePriority(f.priority)
		if err != nil {
			ui.Fail("add: " + err.Error())
			return 2
		}
		in.Priority = p
	}
	if f.due != "" {
		d, err := model.ParseDate(f.due)
		if err != nil {
			ui.Fail("add: " + err.Error())
			return 2
		}
		in.DueDate = &d
	}
	if f.category != "" {
		c := f.category
		in.Category = &c
	}

	b := opt.backend()
	st := store.New(b, store.WithLogger(opt.logger()))
	defer st.Close()
	it, err := st.Create(ctx, in)
	if err != nil {
		return report(err, b.BaseURL())
	}
	ui.OK(fmt.Sprintf("added #%d %s", it.ID, it.Description))
	return 0
}

func doEdit(ctx context.Context, args []string, opt Options) int {
	const usage = "todo edit <id> [-priority P] [-due YYYY-MM-DD] [-category C] [-completed=true|false] [description...]"
	fs := newFlags("edit")
	var f itemFlags
	f.register(fs, true)
	id, rest, code, ok := parseWithID(fs, usage, args)
	if !ok {
		return code
	}

	var patch model.UpdateInput
	if len(rest) > 0 {
		d := strings.Join(rest, " ")
		patch.Description = &d
	}
	var bad error
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "priority":
			p, err := model.ParsePriority(f.priority)
			if err != nil {
				bad = err
				return
			}
			patch.Priority = &p
		case "due":
			d, err := model.ParseDate(f.due)
			if err != nil {
				bad = err
				return
			}
			patch.DueDate = &d
		case "category":
			c := f.category
			patch.Category = &c
		case "completed":
			c := f.completed
			patch.Completed = &c
		}
	})
	if bad != nil {
		ui.Fail("edit: " + bad.Error())
		return 2
	}
	if patch.IsEmpty() {
		ui.Fail("edit: nothing to change")
		ui.Muted("usage: " + usage)
		return 2
	}

	b := opt.backend()
	st := store.New(b, store.WithLogger(opt.logger()))
	defer st.Close()
	it, err := st.Update(ctx, id, patch)
	if err != nil {
		return report(err, b.BaseURL())
	}
	ui.OK(fmt.Sprintf("updated #%d %s", it.ID, it.Description))
	return 0
}

func doToggle(ctx context.Context, args []string, opt Options) int {
	fs := newFlags("done")
	id, _, code, ok := parseWithID(fs, "todo done <id>", args)
	if !ok {
		return code
	}
	b := opt.backend()
	st := store.New(b, store.WithLogger(opt.logger()))
	defer st.Close()
	it, err := st.ToggleComplete(ctx, id)
	if err != nil {
		return report(err, b.BaseURL())
	}
	if it.Completed {
		ui.OK(fmt.Sprintf("completed #%d", it.ID))
	} else {
		ui.OK(fmt.Sprintf("reopened #%d", it.ID))
	}
	return 0
}

func doRemove(ctx context.Context, args []string, opt Options) int {
	fs := newFlags("rm")
	yes := fs.Bool("y", false, "do not ask for confirmation")
	id, _, code, ok := parseWithID(fs, "todo rm [-y] <id>", args)
	if !ok {
		return code
	}
	if !*yes && !confirm(opt, confirmDelete) {
		ui.Muted("cancelled")
		return 0
	}
	b := opt.backend()
	st := store.New(b, store.WithLogger(opt.logger()))
	defer st.Close()
	if err := st.Delete(ctx, id); err != nil {
		return report(err, b.BaseURL())
	}
	ui.OK(fmt.Sprintf("removed #%d", id))
	return 0
}

func doInteractive(ctx context.Context, opt Options) int {
	if opt.Interactive == nil {
		ui.Fail("ui: interactive mode is not available")
		return 1
	}
	b := opt.backend()
	st := store.New(b, store.WithLogger(opt.logger()))
	defer st.Close()
	if err := opt.Interactive(ctx, st, b.BaseURL()); err != nil {
		ui.Fail("ui: " + err.Error())
		return 1
	}
	return 0
}

func confirm(opt Options, question string) bool {
	fmt.Fprintf(ui.Out(), "%s [y/N] ", question)
	line, _ := bufio.NewReader(opt.in()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
