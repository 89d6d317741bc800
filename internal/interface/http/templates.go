package handlers

import "html/template"

// Templates returns the page templates. Markup is deliberately bare: the
// product styling ships separately and is not this service's concern.
func Templates() *template.Template {
	return template.Must(template.New("pages").Parse(pageTemplates))
}

const pageTemplates = `
{{define "head"}}<!doctype html><html><head><meta charset="utf-8"><title>{{.Title}} · Bakehouse</title></head><body><h1>{{.Title}}</h1>{{end}}

{{define "foot"}}</body></html>{{end}}

{{define "errors"}}{{if .Error}}<p class="error">{{.Error}}</p>{{end}}{{range $f, $m := .Details}}<p class="error">{{$f}} {{$m}}</p>{{end}}{{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}{{end}}

{{define "login"}}{{template "head" .}}{{template "errors" .}}
<form method="post" action="/login">
  <input type="hidden" name="redirect" value="{{with .ReturnTo}}{{.}}{{end}}">
  <label>Email <input type="email" name="email" value="{{with .Email}}{{.}}{{end}}"></label>
  <label>Password <input type="password" name="password"></label>
  <button type="submit">Sign in</button>
</form>
<p><a href="/signup">Create an account</a> · <a href="/forgot-password">Forgot password?</a></p>
{{template "foot" .}}{{end}}

{{define "signup"}}{{template "head" .}}{{template "errors" .}}
<form method="post" action="/signup">
  <label>Name <input type="text" name="name" value="{{with .Name}}{{.}}{{end}}"></label>
  <label>Email <input type="email" name="email" value="{{with .Email}}{{.}}{{end}}"></label>
  <label>Password <input type="password" name="password"></label>
  <button type="submit">Sign up</button>
</form>
<p><a href="/login">Already have an account?</a></p>
{{template "foot" .}}{{end}}

{{define "forgot_password"}}{{template "head" .}}{{template "errors" .}}
<form method="post" action="/forgot-password">
  <label>Email <input type="email" name="email" value="{{with .Email}}{{.}}{{end}}"></label>
  <button type="submit">Send reset link</button>
</form>
<p><a href="/login">Back to sign in</a></p>
{{template "foot" .}}{{end}}

{{define "reset_password"}}{{template "head" .}}{{template "errors" .}}
<form method="post" action="/reset-password">
  <input type="hidden" name="token" value="{{with .Token}}{{.}}{{end}}">
  <label>New password <input type="password" name="password"></label>
  <label>Confirm password <input type="password" name="confirm_password"></label>
  <button type="submit">Reset password</button>
</form>
{{template "foot" .}}{{end}}

{{define "verify_email"}}{{template "head" .}}{{template "errors" .}}
{{if .Verified}}<p>Your email address is verified.</p><p><a href="/login">Sign in</a></p>{{else}}
<form method="post" action="/resend-verification">
  <label>Email <input type="email" name="email" value="{{with .Email}}{{.}}{{end}}"></label>
  <button type="submit">Resend verification email</button>
</form>
{{end}}
{{template "foot" .}}{{end}}

{{define "dashboard"}}{{template "head" .}}
<p>Signed in as {{.User.Email}}{{if .User.Name}} ({{.User.Name}}){{end}}</p>
{{if not .User.EmailVerified}}<p class="notice">Your email address is not verified yet.</p>{{end}}
<nav><a href="/profile">Profile</a>
<form method="post" action="/logout"><button type="submit">Sign out</button></form></nav>
{{if .CanManage}}<p>Manager tools are enabled for this account.</p>{{end}}
{{template "foot" .}}{{end}}

{{define "profile"}}{{template "head" .}}{{template "errors" .}}
<form method="post" action="/profile">
  <label>Name <input type="text" name="name" value="{{if .User.Name}}{{.User.Name}}{{end}}"></label>
  <label>Email <input type="email" name="email" value="{{.User.Email}}"></label>
  <button type="submit">Save</button>
</form>
<form method="post" action="/profile/password">
  <label>Current password <input type="password" name="current_password"></label>
  <label>New password <input type="password" name="new_password"></label>
  <label>Confirm new password <input type="password" name="confirm_password"></label>
  <button type="submit">Change password</button>
</form>
<p><a href="/dashboard">Back to dashboard</a></p>
{{template "foot" .}}{{end}}
`
