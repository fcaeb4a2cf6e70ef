package main

import (
	"context"
	"fmt"

	"github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/wiki"
)

func (cli *commandLine) addCourse(nc course.NewCourse, homeWiki string) error {
	ctx := context.Background()
	if homeWiki != "" {
		var err error
		if nc.Language, nc.Project, err = wiki.Parse(homeWiki); err != nil {
			return err
		}
	}
	if err := nc.Validate(cli.validate); err != nil {
		return err
	}

	c, err := cli.courseSvc.Create(ctx, nc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Course %q created.\n", c.Slug)
	return nil
}

// enroll adds a user to a course without permission checks.
func (cli *commandLine) enroll(slug, uname string, role int) error {
	ctx := context.Background()
	if _, ok := course.RoleNames[role]; !ok {
		return fmt.Errorf("invalid course role %d", role)
	}

	c, err := cli.courseSvc.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	usr, err := cli.findUser(ctx, uname)
	if err != nil {
		return err
	}
	if _, err = cli.courseSvc.AddUser(ctx, c, usr.ID, role); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s enrolled in %q as %s.\n", uname, c.Slug, course.RoleNames[role])
	return nil
}
