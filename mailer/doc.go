// Package mailer holds the outbound mail contract of the loan service and
// its SMTP implementation.
package mailer
