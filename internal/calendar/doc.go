// Package calendar implements the booking event store on top of the
// Google Calendar API.
//
// The client satisfies schedule.EventStore: appointments live as calendar
// events on the clinic's calendar, with normalized patient identifiers
// stored as private extended properties so later cancel and move requests
// can be verified without a separate database.
//
// The package supports multi-account authentication using the Google
// OAuth2 flow, following the same token-provider layout as the rest of
// the Google integration.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := calendar.NewClient(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	events, err := client.ListEvents(ctx, "primary", time.Now(), time.Now().AddDate(0, 0, 7))
//	if err != nil {
//	    log.Fatal(err)
//	}
package calendar
