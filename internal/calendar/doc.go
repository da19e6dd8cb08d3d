// Package calendar provides a client for the Google Calendar API.
//
// The client inserts one event per booked meeting into the configured calendar
// and asks Google to send invitations to every attendee. The join details of
// the online meeting are written into the event location and description.
//
// Example usage:
//
//	httpClient := store.HTTPClient(ctx, credentials.ProviderGoogle)
//	client, err := calendar.NewClient(ctx, httpClient, calendar.Options{TimeZone: "Europe/London"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	event, err := client.CreateEvent(ctx, calendar.EventInput{
//	    Summary: "Design review",
//	    Start:   start,
//	    End:     start.Add(time.Hour),
//	})
package calendar
