/*
Package authsdk is the client for the stockdesk authentication endpoints.

# Overview

The console talks to four endpoints: credential exchange, the "who am I"
profile fetch, face verification and admin registration. SDKClient wraps all
of them and owns a DefaultHeaders set that is attached to every outbound
request, so a single caller (the console's session guard) can attach or
detach the bearer token for everybody:

	client := authsdk.NewSDKClient("http://localhost:8080")

	login, err := client.Login(ctx, email, password)
	if err != nil {
		var apiErr *authsdk.APIError
		if errors.As(err, &apiErr) && apiErr.IsRejection() {
			// wrong email or password
		}
		return err
	}
	client.Headers.SetBearer(login.Token)

	me, err := client.Me(ctx)

# Errors

Non-2xx responses are returned as *APIError carrying the status code and the
server's error code. Transport failures (dial errors, timeouts, unreadable
bodies) are returned as plain wrapped errors, so callers can tell "the server
said no" apart from "the server could not be reached".

The same APIError values are used by the server handlers through WriteError,
which keeps the wire format in one place.

# Face verification

VerifyFace takes the still frame as a data URL (see EncodeDataURL). The
response reports the verdict; a false verdict is a normal 200 response, not
an error.
*/
package authsdk
