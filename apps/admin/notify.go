package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core/alert"
)

// notifyInstructors previews the notification and sends it once confirmed.
func (cli *commandLine) notifyInstructors(senderName, slug, subject, message string, bcc bool) error {
	ctx := context.Background()

	sender, err := cli.findUser(ctx, senderName)
	if err != nil {
		return err
	}
	if err = alert.CheckSender(sender); err != nil {
		return err
	}
	c, err := cli.courseSvc.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	d := alert.Draft{Notification: alert.Notification{CourseID: c.ID, CourseTitle: c.Title}}
	d.SetSubject(subject)
	d.SetMessage(message)
	if bcc {
		d.ToggleBcc()
	}
	if err = d.Notification.Validate(cli.validate); err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "To:      instructors of %q\n", d.CourseTitle)
	fmt.Fprintf(cli.out, "Subject: %s\n", d.Subject)
	fmt.Fprintf(cli.out, "Bcc to Salesforce: %t\n\n%s\n\n", d.BccToSalesforce, d.Message)
	ok, err := cli.confirm("Send this notification?")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cli.out, "Notification cancelled.")
		return nil
	}

	if err = d.Begin(); err != nil {
		return err
	}
	a, err := cli.alertSvc.NotifyInstructors(ctx, sender, d.Notification)
	if err != nil {
		return err
	}
	d.Track(a)
	if d.Status == alert.StatusFailed {
		return errors.Errorf("alert %d not delivered: %s", a.ID, d.Error)
	}
	fmt.Fprintf(cli.out, "Alert %d sent.\n", a.ID)
	return nil
}
