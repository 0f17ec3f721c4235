package models

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
)

// Context carries a single request and its response writer through a
// controller
type Context struct {
	Request        *http.Request
	ResponseWriter http.ResponseWriter
	RouteVars      map[string]string
	StartTime      time.Time
	IP             net.IP
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of responses that only confirm an action
type MessageResponse struct {
	Message string `json:"message"`
}

// MakeContext builds the Context for a request
func MakeContext(
	request *http.Request,
	responseWriter http.ResponseWriter,
) *Context {

	c := new(Context)
	c.Request = request
	c.ResponseWriter = responseWriter
	c.RouteVars = mux.Vars(request)
	c.StartTime = time.Now()
	c.IP = GetRequestIP(request)

	return c
}

// GetRequestIP returns the remote IP of the request, or nil
func GetRequestIP(request *http.Request) net.IP {
	host, _, _ := net.SplitHostPort(request.RemoteAddr)
	return net.ParseIP(host)
}

// GetHTTPMethod returns the request method, honouring method overrides on
// POST for clients that cannot send DELETE
func (c *Context) GetHTTPMethod() string {
	m := c.Request.Method

	if m == "POST" {
		if c.Request.Header.Get("X-HTTP-Method-Override") != "" {
			m = strings.ToUpper(c.Request.Header.Get("X-HTTP-Method-Override"))
		}
		if c.Request.URL.Query().Get("method") != "" {
			m = strings.ToUpper(c.Request.URL.Query().Get("method"))
		}

		switch m {
		case "DELETE":
		case "GET":
		case "HEAD":
		case "OPTIONS":
		case "POST":
		default:
			// If it wasn't one of the above then let's just use what we know
			// is safe
			return c.Request.Method
		}
	}

	return m
}

// Respond marshals data as JSON and writes it with the given status
func (c *Context) Respond(data interface{}, statusCode int) error {
	output, err := json.Marshal(data)
	if err != nil {
		glog.Errorf("json.Marshal(data) %+v", err)
		http.Error(c.ResponseWriter, err.Error(), http.StatusInternalServerError)
		return err
	}

	return c.RespondWithJSON(output, statusCode)
}

// RespondWithJSON writes output, which must already be JSON, with the given
// status
func (c *Context) RespondWithJSON(output []byte, statusCode int) error {
	// Prevent content type detection, a.k.a. sniffing
	c.ResponseWriter.Header().Set("Content-Type", "application/json")
	c.ResponseWriter.Header().Set("Access-Control-Allow-Origin", "*")

	// The listing is cached server side, clients should always ask
	c.ResponseWriter.Header().Set(`Cache-Control`, `no-cache, max-age=0`)

	// Prevent chunking
	c.ResponseWriter.Header().Set("Content-Length", strconv.Itoa(len(output)))

	if glog.V(2) {
		glog.Infof(
			"%s %s %d %s",
			c.GetHTTPMethod(),
			c.Request.URL.Path,
			statusCode,
			time.Since(c.StartTime),
		)
	}

	return c.WriteResponse(output, statusCode)
}

// WriteResponse ultimately does the job of writing the response
func (c *Context) WriteResponse(output []byte, statusCode int) error {
	c.ResponseWriter.WriteHeader(statusCode)

	// HEAD requests return no body
	if c.GetHTTPMethod() == "HEAD" {
		return nil
	}

	_, err := c.ResponseWriter.Write(output)

	// We only log at error severity when an error is not the result of the
	// client disconnecting. "broken pipe" is a syscall.EPIPE error that
	// indicates client disconnection.
	if err != nil {
		opErr, ok := err.(*net.OpError)
		if !ok || opErr.Err != syscall.EPIPE {
			glog.Errorf(
				"Error writing %s response to %s : %+v\n",
				c.GetHTTPMethod(),
				c.Request.URL.String(),
				err,
			)
			return err
		}

		glog.Warningf(
			"Error writing %s response to %s : %+v\n",
			c.GetHTTPMethod(),
			c.Request.URL.String(),
			err,
		)
		return err
	}

	return nil
}

// RespondWithOptions lists the allowed methods
func (c *Context) RespondWithOptions(options []string) error {
	c.ResponseWriter.Header().Set("Allow", strings.Join(options, ","))
	c.ResponseWriter.Header().Set("Access-Control-Allow-Origin", "*")
	c.ResponseWriter.Header().Set("Access-Control-Allow-Methods", strings.Join(options, ","))
	c.ResponseWriter.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	c.ResponseWriter.Header().Set("Content-Length", "0")
	c.ResponseWriter.WriteHeader(http.StatusOK)
	return nil
}

// RespondWithStatus responds with the status description as the error
func (c *Context) RespondWithStatus(statusCode int) error {
	return c.RespondWithErrorMessage(http.StatusText(statusCode), statusCode)
}

// RespondWithErrorMessage responds with custom code and an error message
func (c *Context) RespondWithErrorMessage(
	message string,
	statusCode int,
) error {

	return c.Respond(ErrorResponse{Error: message}, statusCode)
}

// RespondWithErrorDetail responds with the message of err, except for server
// errors whose detail is logged and replaced with a generic message
func (c *Context) RespondWithErrorDetail(err error, statusCode int) error {
	if statusCode >= http.StatusInternalServerError {
		glog.Errorf("%s %s: %+v", c.GetHTTPMethod(), c.Request.URL.Path, err)
		return c.RespondWithErrorMessage(InternalErrorMessage, statusCode)
	}

	return c.RespondWithErrorMessage(err.Error(), statusCode)
}

// RespondWithData responds with 200 and the data
func (c *Context) RespondWithData(data interface{}) error {
	return c.Respond(data, http.StatusOK)
}

// RespondWithCreated responds with 201 and the data
func (c *Context) RespondWithCreated(data interface{}) error {
	return c.Respond(data, http.StatusCreated)
}

// RespondWithMessage responds with 200 and a message
func (c *Context) RespondWithMessage(message string) error {
	return c.RespondWithData(MessageResponse{Message: message})
}

// RespondWithNotFound responds with 404 Not Found
func (c *Context) RespondWithNotFound() error {
	return c.RespondWithStatus(http.StatusNotFound)
}

// InternalErrorMessage is sent in place of the detail of any server error
const InternalErrorMessage = "Internal server error"

// RequestDecoder unmarshals the request body into an appropriate type/struct
type RequestDecoder interface {
	Unmarshal(cx *Context, v interface{}) error
}

// JSONRequestDecoder decodes a JSON request body
type JSONRequestDecoder struct{}

// Unmarshal reads the body as JSON
func (d *JSONRequestDecoder) Unmarshal(cx *Context, v interface{}) error {
	err := json.NewDecoder(cx.Request.Body).Decode(v)
	cx.Request.Body.Close()
	return err
}

// FormRequestDecoder decodes a form-encoded request body
type FormRequestDecoder struct{}

// Unmarshal reads the body as a form
func (d *FormRequestDecoder) Unmarshal(cx *Context, v interface{}) error {
	if cx.Request.Form == nil {
		if err := cx.Request.ParseForm(); err != nil {
			return err
		}
	}
	return UnmarshalForm(cx.Request.Form, v)
}

// map of Content-Type -> RequestDecoders
var decoders = map[string]RequestDecoder{
	"application/json":                  new(JSONRequestDecoder),
	"application/x-www-form-urlencoded": new(FormRequestDecoder),
}

// Fill fills v with the contents of the request body. The body is decoded
// based on the content-type.
func (cx *Context) Fill(v interface{}) error {
	ct := cx.Request.Header.Get("Content-Type")
	// default to urlencoded
	if strings.Trim(ct, " ") == "" {
		ct = "application/x-www-form-urlencoded"
	}

	// ignore charset (after ';')
	ct = strings.TrimSpace(strings.Split(ct, ";")[0])

	decoder, ok := decoders[ct]
	if !ok {
		return fmt.Errorf("cannot decode request for %s data", ct)
	}

	return decoder.Unmarshal(cx, v)
}

// UnmarshalForm fills the struct v from the values in form. Fields are
// matched on their json tag, falling back to the field name.
func UnmarshalForm(form url.Values, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("v must point to a struct")
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		unmarshalField(form, rt.Field(i), rv.Field(i))
	}
	return nil
}

func unmarshalField(
	form url.Values,
	t reflect.StructField,
	v reflect.Value,
) {
	name := strings.Split(t.Tag.Get("json"), ",")[0]
	if name == "" || name == "-" {
		name = t.Name
	}

	fvs := form[name]
	if len(fvs) == 0 {
		return
	}
	fv := fvs[0]

	switch v.Kind() {
	case reflect.String:
		v.SetString(fv)
	case reflect.Int, reflect.Int64:
		if i, err := strconv.ParseInt(fv, 10, 64); err == nil {
			v.SetInt(i)
		}
	case reflect.Bool:
		// the following strings convert to true
		// 1,true,on,yes
		if fv == "1" || fv == "true" || fv == "on" || fv == "yes" {
			v.SetBool(true)
		}
	default:
		glog.Warningf("UnmarshalForm: unsupported field kind %s", v.Kind())
	}
}
