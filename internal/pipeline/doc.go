// Package pipeline composes the edge stages into one ordered chain.
//
// Each Stage receives the response writer, the request and the rest of the
// chain. A stage that writes a response without calling next terminates the
// chain; headers written by outer stages stay on that response because all
// stages share the same writer.
//
//	exec := pipeline.New(dispatcher,
//	    middleware.NewTraceContext(),
//	    middleware.NewCORS(cfg.CORS),
//	    auth.NewStage(authenticator, logger, metrics),
//	)
//	http.ListenAndServe(":8080", exec)
package pipeline
