package main

import (
	"errors"
	"fmt"

	"github.com/and161185/nutrito/internal/auth"
	"github.com/and161185/nutrito/internal/errs"
)

func (a *app) requireRemote() error {
	if a.remote == nil {
		return fmt.Errorf("remote backend: %w (set NUTRITO_SUPABASE_URL and NUTRITO_SUPABASE_ANON_KEY)", errs.ErrNotConfigured)
	}
	return nil
}

func (a *app) cmdStatus() error {
	st := a.store.Snapshot()
	mode := "local-only"
	if a.store.RemoteConfigured() {
		mode = "remote " + a.cfg.SupabaseURL
	}
	fmt.Fprintf(a.out, "mode:       %s\n", mode)
	fmt.Fprintf(a.out, "database:   %s\n", a.cfg.DBPath)
	fmt.Fprintf(a.out, "date:       %s\n", st.CurrentDate)
	if a.remote != nil {
		if err := a.auth.InitSession(a.ctx); err != nil {
			fmt.Fprintf(a.out, "user:       unknown (%v)\n", err)
		} else if u := a.auth.User(); u != nil {
			fmt.Fprintf(a.out, "user:       %s\n", auth.DisplayUsername(u.Email))
		} else {
			fmt.Fprintln(a.out, "user:       not signed in")
		}
	}
	fmt.Fprintf(a.out, "units:      %d\n", len(st.Units))
	fmt.Fprintf(a.out, "foods:      %d\n", len(st.Foods))
	fmt.Fprintf(a.out, "exchanges:  %d\n", len(st.Exchanges))
	fmt.Fprintf(a.out, "recipes:    %d (%d categories)\n", len(st.Recipes), len(st.RecipeCategories))
	fmt.Fprintf(a.out, "meal items: %d\n", len(st.MealItems))
	fmt.Fprintf(a.out, "water logs: %d\n", len(st.WaterLogs))
	fmt.Fprintf(a.out, "weigh-ins:  %d\n", len(st.WeightLogs))
	return nil
}

func (a *app) credentials(name string, args []string) (user, pass string, err error) {
	fs := a.flags(name)
	u := fs.String("u", "", "username")
	p := fs.String("p", "", "password")
	if err := parse(fs, args); err != nil {
		return "", "", err
	}
	if *u == "" || *p == "" {
		return "", "", a.usage("%s: need -u and -p", name)
	}
	return *u, *p, nil
}

func (a *app) cmdRegister(args []string) error {
	user, pass, err := a.credentials("register", args)
	if err != nil {
		return err
	}
	if err := a.requireRemote(); err != nil {
		return err
	}
	u, err := a.remote.SignUp(a.ctx, auth.ToAuthIdentifier(user), pass)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	fmt.Fprintf(a.out, "registered %s (%s)\n", auth.DisplayUsername(u.Email), u.ID)
	return nil
}

func (a *app) cmdLogin(args []string) error {
	user, pass, err := a.credentials("login", args)
	if err != nil {
		return err
	}
	if err := a.requireRemote(); err != nil {
		return err
	}
	u, err := a.auth.SignIn(a.ctx, user, pass)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Fprintf(a.out, "signed in as %s\n", auth.DisplayUsername(u.Email))

	if err := a.store.InitializeData(a.ctx); err != nil {
		fmt.Fprintln(a.errOut, "warning: could not load remote data, keeping local data:", err)
		return nil
	}
	fmt.Fprintln(a.out, "remote data loaded")
	return nil
}

func (a *app) cmdLogout() error {
	if err := a.requireRemote(); err != nil {
		return err
	}
	if err := a.auth.SignOut(a.ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func (a *app) cmdWhoami() error {
	if err := a.requireRemote(); err != nil {
		return err
	}
	if err := a.auth.InitSession(a.ctx); err != nil {
		return err
	}
	u := a.auth.User()
	if u == nil {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}
	fmt.Fprintln(a.out, auth.DisplayUsername(u.Email))
	return nil
}

func (a *app) cmdSync(args []string) error {
	if len(args) != 1 {
		return a.usage("sync: pull or push")
	}
	if err := a.requireRemote(); err != nil {
		return err
	}
	switch args[0] {
	case "pull":
		if err := a.store.InitializeData(a.ctx); err != nil {
			return err
		}
		st := a.store.Snapshot()
		fmt.Fprintf(a.out, "pulled %d foods, %d recipes, %d meal items\n", len(st.Foods), len(st.Recipes), len(st.MealItems))
	case "push":
		if err := a.store.PushLocalData(a.ctx); err != nil {
			if errors.Is(err, errs.ErrUnauthorized) {
				return fmt.Errorf("push: %w (login first)", err)
			}
			return fmt.Errorf("push: %w", err)
		}
		fmt.Fprintln(a.out, "local data pushed")
	default:
		return a.usage("sync: unknown action %q", args[0])
	}
	return nil
}
