package auth

import (
	"fmt"
	"net/url"

	"codeberg.org/afewwords/companion/internal/tokens"
	"golang.org/x/oauth2"
)

// checks the redirect query: an error parameter, a state mismatch or a
// missing code abort the login
func parseCallback(query url.Values, state string) callbackResult {
	if errCode := query.Get("error"); errCode != "" {
		return callbackResult{err: fmt.Errorf("%w: provider returned %s: %s", ErrLoginAborted, errCode, query.Get("error_description"))}
	}

	if query.Get("state") != state {
		return callbackResult{err: fmt.Errorf("%w: state mismatch", ErrLoginAborted)}
	}

	code := query.Get("code")
	if code == "" {
		return callbackResult{err: fmt.Errorf("%w: missing authorization code", ErrLoginAborted)}
	}

	return callbackResult{code: code}
}

func callbackPath(redirect *url.URL) string {
	if redirect.Path == "" {
		return "/"
	}

	return redirect.Path
}

// maps a token response onto the store's partial token set
func tokenSetFrom(token *oauth2.Token) tokens.TokenSet {
	set := tokens.TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
	}

	if idToken, ok := token.Extra("id_token").(string); ok {
		set.IDToken = idToken
	}

	if !token.Expiry.IsZero() {
		set.ExpiresAt = token.Expiry.Unix()
	}

	return set
}
