// Package scholarauth is a Redis-backed authentication engine: argon2id
// credentials, JWT access/refresh pairs with rotation and blacklisting,
// brute-force lockout, and challenge-based password reset and email
// verification.
//
// The engine owns no account storage. The host application implements
// [PrincipalStore] over its own database; the engine keeps only volatile
// security state (blacklists, lockout counters, challenges) in Redis.
//
// Build an engine through the builder:
//
//	cfg := scholarauth.DefaultConfig()
//	cfg.JWT.Secret = secret
//
//	engine, err := scholarauth.New().
//		WithConfig(cfg).
//		WithRedis(redisClient).
//		WithPrincipalStore(store).
//		WithMailSender(sender).
//		Build()
//
// Every operation returns a [Result] envelope carrying a success flag, an
// HTTP status code, and a JSON-ready payload, so transport handlers stay
// thin. Sentinel errors such as [ErrInvalidCredentials] ride along in
// Result.Err for programmatic callers.
package scholarauth
