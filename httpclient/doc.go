// Package httpclient provides the outbound HTTP client shared by the Telegram
// client, the file downloader and the ASR provider.
//
// An Adapter carries a base URL, default headers, authentication, a timeout
// and optional retry and rate limiting. Bodies may be JSON values, raw bytes,
// strings, readers or a *MultipartBody. Failures come back as *Error values
// classified by kind (timeout, connection, auth, not_found, rate_limit,
// validation, server). Transport errors never carry the request path, so
// credentials embedded in URLs stay out of logs.
//
// # Basic Usage
//
//	a, err := httpclient.New(httpclient.Config{
//	    Name:    "asr",
//	    Timeout: 600 * time.Second,
//	})
//
//	resp, err := a.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   asrURL,
//	    Body: &httpclient.MultipartBody{Files: []httpclient.FileField{{
//	        FieldName: "audio_file", FileName: "downloads/abc.ogg", Data: audio,
//	    }}},
//	})
//
// # Typed JSON
//
//	out, err := httpclient.Post[envelope](a, ctx, "sendMessage", payload)
package httpclient
