// Package logging provides structured logging with credential redaction.
//
// The package wraps log/slog. New builds a JSON or text handler chain that
// adds request fields stored in the context and masks credentials:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Redact: true})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger.Slog())
//
//	ctx = logging.WithSource(ctx, "exports/web.xml")
//	slog.InfoContext(ctx, "validation finished", "valid", true)
//
// # Redaction
//
// Attribute keys naming a credential (ipmi_password, snmp_community,
// snmpv3_authpassphrase, snmpv3_privpassphrase, privatekey, token and
// similar) have their value replaced by "***". String values are scrubbed
// for bearer tokens, credentials embedded in URLs and password=value pairs.
package logging
