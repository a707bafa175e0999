// Package voice turns Telegram voice messages into transcript replies.
//
// A Pipeline handles one message: acknowledge, resolve the file path,
// download, persist the working file, read it back, transcribe, reply and
// delete the working file in the background. A Dispatcher runs one pipeline
// invocation per inbound message, optionally bounded by a bulkhead.
//
//	p := voice.NewPipeline(voice.Deps{...}, cfg.Pipeline, log)
//	d := voice.NewDispatcher(p, cfg.Pipeline, log)
//	d.Dispatch(ctx, voice.Message{ChatID: 42, Voice: &voice.Attachment{...}})
package voice
