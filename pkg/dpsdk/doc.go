/*
Package dpsdk is the client SDK for the differential-privacy query server.

# Overview

A Client addresses exactly one server, fixed at construction by its base URL.
Every request is sent to the base URL joined with the endpoint path, so the
same binary can talk to a server on the local machine or on another host on
the LAN:

	client, err := dpsdk.NewClient("")                          // http://127.0.0.1:5000
	client, err := dpsdk.NewClient("http://192.168.1.20:5000")  // another machine

The base URL cannot be changed after construction. Build a second Client to
talk to a second server.

# Queries

The server decides the privacy budget. Query sends the raw request; the typed
helpers decode the result for each query type:

	actual, err := client.RevenueByRegion(ctx, false)
	private, err := client.RevenueByRegion(ctx, true)

	n, err := client.CountByFingerprint(ctx, true, dpsdk.Fingerprint{
		Year: 2022, Month: 12, LOS: "05. 1-3yr", Channel: "MyTelkomsel",
	})

# Error Handling

Non-2xx responses become *APIError carrying the HTTP status and the server's
error code:

	_, err := client.Query(ctx, dpsdk.QueryRequest{Type: "median"})
	var apiErr *dpsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == dpsdk.ErrorCodeUnsupportedQueryType {
		// ...
	}

Transport failures are wrapped with the base URL so the operator can see
which server was unreachable. There is no retry.
*/
package dpsdk
