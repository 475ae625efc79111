package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/rskariadi-dev/manrura/internal/assessment"
	"github.com/rskariadi-dev/manrura/internal/cliconfig"
	"github.com/rskariadi-dev/manrura/internal/domain"
)

var errNotSignedIn = errors.New("not signed in, run `manrura login` first")

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "configure":
		return a.configure(args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout()
	case "whoami":
		return a.whoami(ctx)
	case "password":
		return a.password(ctx, args)
	case "checklist":
		renderChecklist(a.out, a.checklist.Standards())
		return nil
	case "status":
		return a.status(ctx, args)
	case "score":
		return a.score(ctx, args)
	case "upload":
		return a.upload(ctx, args)
	case "summary":
		return a.summary(ctx)
	case "add-ward":
		return a.addWard(ctx, args)
	case "add-user":
		return a.addUser(ctx, args)
	case "add-period":
		return a.addPeriod(ctx, args)
	}
	return fmt.Errorf("unknown command %q, run `manrura -h` for the list", cmd)
}

// load signs in from the stored session and fetches the current data.
func (a *app) load(ctx context.Context) (*domain.User, error) {
	user, ok := a.session.CurrentUser()
	if !ok {
		return nil, errNotSignedIn
	}
	if err := a.engine.Refresh(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// finish waits for background saves and surfaces the first failure.
func (a *app) finish(p *assessment.Pending) error {
	a.engine.Wait()
	if p == nil {
		return nil
	}
	return p.Wait()
}

func (a *app) configure(args []string) error {
	fs := flag.NewFlagSet("configure", flag.ContinueOnError)
	endpoint := fs.String("endpoint", a.cfg.API.Endpoint, "full URL of the action route")
	stateDir := fs.String("state", a.cfg.State.Dir, "directory for the session")
	timeout := fs.Int("timeout", a.cfg.API.TimeoutSeconds, "request timeout in seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := &cliconfig.Config{}
	cfg.API.Endpoint = strings.TrimSpace(*endpoint)
	cfg.API.TimeoutSeconds = *timeout
	cfg.State.Dir = *stateDir
	if err := cliconfig.Save(a.cfgPath, cfg); err != nil {
		return err
	}
	fmt.Fprintln(a.out, okStyle.Render("settings saved to "+a.cfgPath))
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("MANRURA_PASSWORD"), "password, defaults to $MANRURA_PASSWORD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, okStyle.Render(fmt.Sprintf("signed in as %s (%s)", user.Name, user.Role)))
	return nil
}

func (a *app) logout() error {
	if err := a.auth.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if _, ok := a.session.CurrentUser(); !ok {
		return errNotSignedIn
	}
	me, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> %s %s\n", me.Name, me.Email, me.Role, me.WardID)
	return nil
}

func (a *app) password(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("password", flag.ContinueOnError)
	current := fs.String("current", os.Getenv("MANRURA_PASSWORD"), "current password, defaults to $MANRURA_PASSWORD")
	next := fs.String("new", "", "new password, at least 8 characters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, ok := a.session.CurrentUser(); !ok {
		return errNotSignedIn
	}

	if err := a.client.ChangePassword(ctx, *current, *next); err != nil {
		return err
	}
	fmt.Fprintln(a.out, okStyle.Render("password changed"))
	return nil
}

func (a *app) status(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	wardID := fs.String("ward", "", "ward to show, defaults to your own ward")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.load(ctx)
	if err != nil {
		return err
	}
	period, active := a.engine.ActivePeriod()
	renderHeader(a.out, user, period, active)

	caps := a.engine.Capabilities()
	id := *wardID
	if id == "" {
		id = caps.HomeWardID
	}
	if id == "" {
		renderSummary(a.out, a.engine.Summary())
		return nil
	}

	if !caps.CanView(id) {
		return fmt.Errorf("you cannot view ward %s", id)
	}
	ward, ok := a.engine.Store().Ward(id)
	if !ok {
		return fmt.Errorf("%w: %s", assessment.ErrUnknownWard, id)
	}
	renderWard(a.out, a.checklist.Standards(), ward, a.engine.Store().WardAssessments(id))
	return nil
}

// slotFlag defaults the score slot to the one the signed-in role owns.
func (a *app) slotFlag(fs *flag.FlagSet) *string {
	def := string(a.engine.Capabilities().ScoreSlot)
	if def == "" {
		def = string(domain.SlotWardStaff)
	}
	return fs.String("slot", def, "score slot, wardStaff or assessor")
}

func (a *app) wardFlag(fs *flag.FlagSet) *string {
	return fs.String("ward", a.engine.Capabilities().HomeWardID, "ward id")
}

func (a *app) score(ctx context.Context, args []string) error {
	if _, err := a.load(ctx); err != nil {
		return err
	}

	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	wardID := a.wardFlag(fs)
	slot := a.slotFlag(fs)
	pointID := fs.String("point", "", "point id")
	score := fs.Int("score", 0, "score: 0, 5 or 10")
	notes := fs.String("notes", "", "notes")
	clearEvidence := fs.Bool("clear-evidence", false, "remove the attached evidence")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var u domain.ScoreUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "score":
			v := *score
			u.Score = &v
		case "notes":
			v := *notes
			u.Notes = &v
		case "clear-evidence":
			u.ClearEvidence = *clearEvidence
		}
	})

	p, err := a.engine.ApplyUpdate(ctx, *wardID, *pointID, domain.ScoreSlot(*slot), u)
	if err != nil {
		return err
	}
	return a.finish(p)
}

func (a *app) upload(ctx context.Context, args []string) error {
	if _, err := a.load(ctx); err != nil {
		return err
	}

	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	wardID := a.wardFlag(fs)
	slot := a.slotFlag(fs)
	pointID := fs.String("point", "", "point id")
	path := fs.String("file", "", "file to attach")
	if err := fs.Parse(args); err != nil {
		return err
	}

	content, err := os.ReadFile(*path)
	if err != nil {
		return err
	}
	mimeType := mimetype.Detect(content).String()

	p, err := a.engine.UploadEvidence(ctx, *wardID, *pointID, domain.ScoreSlot(*slot), filepath.Base(*path), mimeType, content)
	if err != nil {
		return err
	}
	return a.finish(p)
}

func (a *app) summary(ctx context.Context) error {
	if _, err := a.load(ctx); err != nil {
		return err
	}
	renderSummary(a.out, a.engine.Summary())
	return nil
}

func (a *app) addWard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-ward", flag.ContinueOnError)
	name := fs.String("name", "", "ward name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.load(ctx); err != nil {
		return err
	}

	ward, p, err := a.engine.AddWard(ctx, *name)
	if err != nil {
		return err
	}
	if err := a.finish(p); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ward %s created with id %s\n", ward.Name, ward.ID)
	return nil
}

func parseRole(s string) (domain.Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return domain.RoleAdmin, nil
	case "assessor":
		return domain.RoleAssessor, nil
	case "staff", "ward staff", "wardstaff":
		return domain.RoleWardStaff, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownRole, s)
}

func (a *app) addUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ContinueOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "initial password")
	role := fs.String("role", "staff", "admin, assessor or staff")
	wardID := fs.String("ward", "", "ward id, ward staff only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := parseRole(*role)
	if err != nil {
		return err
	}
	if _, err := a.load(ctx); err != nil {
		return err
	}

	user, p, err := a.engine.AddUser(ctx, domain.User{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     r,
		WardID:   *wardID,
	})
	if err != nil {
		return err
	}
	if err := a.finish(p); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "account %s created for %s\n", user.ID, user.Email)
	return nil
}

func (a *app) addPeriod(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-period", flag.ContinueOnError)
	name := fs.String("name", "", "period name")
	start := fs.String("start", "", "first day, YYYY-MM-DD")
	end := fs.String("end", "", "last day, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	startDate, err := domain.ParseDate(*start)
	if err != nil {
		return err
	}
	endDate, err := domain.ParseDate(*end)
	if err != nil {
		return err
	}
	if _, err := a.load(ctx); err != nil {
		return err
	}

	period, err := a.engine.AddPeriod(ctx, *name, startDate, endDate)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "period %s created with id %s\n", period.Name, period.ID)
	return nil
}
