package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emberlang/ember/lang/scanner"
	"github.com/emberlang/ember/lang/token"
	"github.com/emberlang/ember/lang/value"
)

// FunctionType distinguishes the kind of function currently being compiled,
// which changes how slot 0 and `return` are handled (§4.2).
type FunctionType int

const (
	TypeScript FunctionType = iota
	TypeFunction
	TypeMethod
	TypeInitializer
)

// Precedence is the Pratt-parser precedence ladder from §4.2.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

const (
	maxLocals   = 256
	maxUpvalues = 256
	maxJump     = 1 << 16
)

// Local is a named slot in the current function's frame: a name token, a
// scope depth (-1 while in its own initializer), and whether a nested
// function has captured it as an upvalue.
type Local struct {
	Name       token.Token
	Depth      int
	IsCaptured bool
}

// UpvalueDesc distinguishes capturing a local of the enclosing function from
// re-capturing one of the enclosing function's own upvalues.
type UpvalueDesc struct {
	Index   byte
	IsLocal bool
}

type loopState struct {
	start           int
	scopeDepthEntry int
	breaks          []int
}

// funcState is the compiler context for one nested function being compiled
// (§3: "Compiler context").
type funcState struct {
	enclosing *funcState
	function  *value.FunctionObj
	kind      FunctionType

	locals     []Local
	scopeDepth int
	upvalues   []UpvalueDesc
	loops      []*loopState
}

type classState struct {
	enclosing     *classState
	name          string
	hasSuperclass bool
}

// CompileError is returned by Compile when parsing failed; it aggregates
// every diagnostic produced (parsing does not short-circuit on error, §7).
type CompileError struct {
	Messages []string
}

func (e *CompileError) Error() string { return strings.Join(e.Messages, "\n") }

// Compiler consumes tokens from a Scanner and emits a Chunk directly while
// parsing (§4.2): there is no intermediate AST. It owns the stack of nested
// funcStates (one per enclosing function) and classStates (for method
// resolution of `super`), replacing what the book this is modeled after does
// with global `current`/`currentClass` variables (§9) with explicit state
// threaded through an instance.
type Compiler struct {
	scanner  *scanner.Scanner
	interner *value.Interner

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errors    []string

	fs *funcState
	cs *classState
}

// Compile parses source end to end and returns the implicit top-level script
// function, or a *CompileError if any diagnostic was produced.
func Compile(source string, interner *value.Interner) (*value.FunctionObj, error) {
	c := &Compiler{scanner: scanner.New(source), interner: interner}
	c.fs = &funcState{function: &value.FunctionObj{Chunk: &value.Chunk{}}, kind: TypeScript}
	// slot 0 is reserved (receiver/implicit self); the script has none named.
	c.fs.locals = append(c.fs.locals, Local{Depth: 0})

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "Expect end of expression.")

	fn := c.endFunction()
	if c.hadError {
		return nil, &CompileError{Messages: c.errors}
	}
	return fn, nil
}

// --- token stream plumbing ---

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.NextToken()
		if c.current.Kind != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.current.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, msg string) {
	if c.current.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	var where string
	if tok.Kind == token.EOF {
		where = "end"
	} else {
		where = "'" + tok.Lexeme + "'"
	}
	c.errors = append(c.errors, fmt.Sprintf("[line %d] Error at %s: %s", tok.Line, where, msg))
	c.hadError = true
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

// synchronize resynchronizes after a parse error by skipping to the next
// statement boundary, per §7's panicMode.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMI {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.LET, token.FOR, token.IF, token.WHILE, token.DUMP, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- bytecode emission ---

func (c *Compiler) chunk() *value.Chunk { return c.fs.function.Chunk }

func (c *Compiler) emitByte(b byte) {
	c.chunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op OpCode) { c.emitByte(byte(op)) }

func (c *Compiler) emitOpByte(op OpCode, b byte) {
	c.emitByte(byte(op))
	c.emitByte(b)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(LOOP)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > maxJump {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

// emitJump writes the opcode and a two-byte placeholder, returning the
// offset of the first placeholder byte for later patchJump.
func (c *Compiler) emitJump(op OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > maxJump {
		c.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitReturn() {
	if c.fs.kind == TypeInitializer {
		c.emitOpByte(GET_LOCAL, 0)
	} else {
		c.emitOp(NIL)
	}
	c.emitOp(RETURN)
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx, err := c.chunk().AddConstant(v)
	if err != nil {
		c.error(err.Error())
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitOpByte(CONSTANT, c.makeConstant(v))
}

// endFunction finalizes the current funcState's function, pops it off the
// funcState stack, and (for non-top-level functions) emits CLOSURE in the
// enclosing chunk.
func (c *Compiler) endFunction() *value.FunctionObj {
	c.emitReturn()
	fn := c.fs.function
	fn.UpvalueCount = len(c.fs.upvalues)
	upvalues := c.fs.upvalues
	enclosing := c.fs.enclosing
	c.fs = enclosing
	if c.fs != nil {
		idx := c.makeConstant(value.Obj(fn))
		c.emitOpByte(CLOSURE, idx)
		for _, uv := range upvalues {
			if uv.IsLocal {
				c.emitByte(1)
			} else {
				c.emitByte(0)
			}
			c.emitByte(uv.Index)
		}
	}
	return fn
}

// --- scopes and locals ---

func (c *Compiler) beginScope() { c.fs.scopeDepth++ }

func (c *Compiler) endScope() {
	c.fs.scopeDepth--
	locals := c.fs.locals
	for len(locals) > 0 && locals[len(locals)-1].Depth > c.fs.scopeDepth {
		last := locals[len(locals)-1]
		if last.IsCaptured {
			c.emitOp(CLOSE_UPVALUE)
		} else {
			c.emitOp(POP)
		}
		locals = locals[:len(locals)-1]
	}
	c.fs.locals = locals
}

// discardLocalsTo emits the POP/CLOSE_UPVALUE instructions that would
// normally happen at endScope, for every local deeper than targetDepth,
// without actually removing them from the funcState's bookkeeping. Used by
// break/continue to unwind the operand stack along a jump that bypasses the
// ordinary scope-exit code.
func (c *Compiler) discardLocalsTo(targetDepth int) {
	for i := len(c.fs.locals) - 1; i >= 0 && c.fs.locals[i].Depth > targetDepth; i-- {
		if c.fs.locals[i].IsCaptured {
			c.emitOp(CLOSE_UPVALUE)
		} else {
			c.emitOp(POP)
		}
	}
}

func (c *Compiler) identifierConstant(tok token.Token) byte {
	return c.makeConstant(value.Obj(c.interner.Intern(tok.Lexeme)))
}

func identEqual(a, b token.Token) bool { return a.Lexeme == b.Lexeme }

func (c *Compiler) addLocal(name token.Token) {
	if len(c.fs.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fs.locals = append(c.fs.locals, Local{Name: name, Depth: -1})
}

func (c *Compiler) declareVariable(name token.Token) {
	if c.fs.scopeDepth == 0 {
		return
	}
	for i := len(c.fs.locals) - 1; i >= 0; i-- {
		local := c.fs.locals[i]
		if local.Depth != -1 && local.Depth < c.fs.scopeDepth {
			break
		}
		if identEqual(name, local.Name) {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

// parseVariable consumes an identifier, declares it, and returns the
// constant-pool index to use for DEFINE_GLOBAL (0 for locals, whose index is
// meaningless because defineVariable short-circuits for them).
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.IDENT, errMsg)
	c.declareVariable(c.previous)
	if c.fs.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) markInitialized() {
	if c.fs.scopeDepth == 0 {
		return
	}
	c.fs.locals[len(c.fs.locals)-1].Depth = c.fs.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.fs.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(DEFINE_GLOBAL, global)
}

func (fs *funcState) resolveLocal(c *Compiler, name token.Token) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		local := fs.locals[i]
		if identEqual(name, local.Name) {
			if local.Depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (fs *funcState) addUpvalue(c *Compiler, index byte, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fs.upvalues = append(fs.upvalues, UpvalueDesc{Index: index, IsLocal: isLocal})
	fs.function.UpvalueCount = len(fs.upvalues)
	return len(fs.upvalues) - 1
}

func (fs *funcState) resolveUpvalue(c *Compiler, name token.Token) int {
	if fs.enclosing == nil {
		return -1
	}
	if local := fs.enclosing.resolveLocal(c, name); local != -1 {
		fs.enclosing.locals[local].IsCaptured = true
		return fs.addUpvalue(c, byte(local), true)
	}
	if upvalue := fs.enclosing.resolveUpvalue(c, name); upvalue != -1 {
		return fs.addUpvalue(c, byte(upvalue), false)
	}
	return -1
}

// --- declarations and statements ---

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.LET):
		c.letDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(TypeFunction)
	c.defineVariable(global)
}

func (c *Compiler) letDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(NIL)
	}
	c.consume(token.SEMI, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) classDeclaration() {
	c.consume(token.IDENT, "Expect class name.")
	nameTok := c.previous
	nameConstant := c.identifierConstant(nameTok)
	c.declareVariable(nameTok)

	c.emitOpByte(CLASS, nameConstant)
	c.defineVariable(nameConstant)

	cs := &classState{enclosing: c.cs, name: nameTok.Lexeme}
	c.cs = cs

	if c.match(token.LT) {
		c.consume(token.IDENT, "Expect superclass name.")
		superTok := c.previous
		if identEqual(superTok, nameTok) {
			c.error("A class can't inherit from itself.")
		}
		c.namedVariable(superTok, false)

		c.beginScope()
		c.addLocal(syntheticToken("super"))
		c.markInitialized()

		c.namedVariable(nameTok, false)
		c.emitOp(INHERIT)
		cs.hasSuperclass = true
	}

	c.namedVariable(nameTok, false)
	c.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		if c.match(token.LET) {
			c.fieldDeclaration()
		} else {
			c.method()
		}
	}
	c.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(POP)

	if cs.hasSuperclass {
		c.endScope()
	}
	c.cs = cs.enclosing
}

// fieldDeclaration compiles `let name [= expr];` inside a class body into a
// PROPERTY instruction that records the field's default value on the class;
// every instance created afterwards starts with that field set, so methods
// reach it through `this`. A later field's initializer cannot refer to it by
// name: names there resolve only as locals, upvalues or globals.
func (c *Compiler) fieldDeclaration() {
	c.consume(token.IDENT, "Expect field name.")
	nameTok := c.previous
	constant := c.identifierConstant(nameTok)
	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(NIL)
	}
	c.consume(token.SEMI, "Expect ';' after field declaration.")
	c.emitOpByte(PROPERTY, constant)
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "Expect method name.")
	nameTok := c.previous
	constant := c.identifierConstant(nameTok)

	kind := TypeMethod
	if nameTok.Lexeme == "init" {
		kind = TypeInitializer
	}
	c.function(kind)
	c.emitOpByte(METHOD, constant)
}

func syntheticToken(lexeme string) token.Token {
	return token.Token{Kind: token.IDENT, Lexeme: lexeme}
}

// function compiles a nested function body: it opens a new funcState,
// defines the implicit receiver slot, parses parameters, parses the block
// body, and closes the funcState (§4.2).
func (c *Compiler) function(kind FunctionType) {
	fn := &value.FunctionObj{Chunk: &value.Chunk{}}
	if kind != TypeScript {
		fn.Name = c.interner.Intern(c.previous.Lexeme)
	}
	c.fs = &funcState{enclosing: c.fs, function: fn, kind: kind}

	receiver := token.Token{Kind: token.IDENT, Lexeme: ""}
	if kind == TypeMethod || kind == TypeInitializer {
		receiver.Lexeme = "this"
	}
	c.fs.locals = append(c.fs.locals, Local{Name: receiver, Depth: 0})

	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			fn.Arity++
			if fn.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConstant := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConstant)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()
	c.endFunction()
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.DUMP):
		c.dumpStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.SWITCH):
		c.switchStatement()
	case c.match(token.BREAK):
		c.breakStatement()
	case c.match(token.CONTINUE):
		c.continueStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) dumpStatement() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after value.")
	c.emitOp(DUMP)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after expression.")
	c.emitOp(POP)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(JUMP_IF_FALSE)
	c.emitOp(POP)
	c.statement()

	elseJump := c.emitJump(JUMP)
	c.patchJump(thenJump)
	c.emitOp(POP)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(JUMP_IF_FALSE)
	c.emitOp(POP)

	loop := &loopState{start: loopStart, scopeDepthEntry: c.fs.scopeDepth}
	c.fs.loops = append(c.fs.loops, loop)
	c.statement()
	c.fs.loops = c.fs.loops[:len(c.fs.loops)-1]

	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(POP)
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMI):
		// no initializer
	case c.match(token.LET):
		c.letDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(token.SEMI) {
		c.expression()
		c.consume(token.SEMI, "Expect ';' after loop condition.")
		exitJump = c.emitJump(JUMP_IF_FALSE)
		c.emitOp(POP)
	}

	if !c.check(token.RPAREN) {
		bodyJump := c.emitJump(JUMP)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(POP)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")
		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.consume(token.RPAREN, "Expect ')' after for clauses.")
	}

	loop := &loopState{start: loopStart, scopeDepthEntry: c.fs.scopeDepth}
	c.fs.loops = append(c.fs.loops, loop)
	c.statement()
	c.fs.loops = c.fs.loops[:len(c.fs.loops)-1]

	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(POP)
	}
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
	c.endScope()
}

// switchStatement implements §4.2's switch lowering. The residual switch
// value is popped exactly once: on the fall-through path (no match, or
// after default), immediately before the shared "end" label; matched cases
// jump past that shared pop because their own true-branch already consumed
// the switch value (see the per-case comment below).
func (c *Compiler) switchStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'switch'.")
	c.expression() // pushes e
	c.consume(token.RPAREN, "Expect ')' after switch value.")
	c.consume(token.LBRACE, "Expect '{' before switch body.")

	var exitJumps []int

	for c.match(token.CASE) {
		c.emitOp(DUP)
		c.expression()
		c.consume(token.COLON, "Expect ':' after case value.")
		c.emitOp(EQUAL)

		next := c.emitJump(JUMP_IF_FALSE)
		c.emitOp(POP) // pop the comparison result (true path)
		c.emitOp(POP) // pop the now-consumed switch value (true path)
		for !c.check(token.CASE) && !c.check(token.DEFAULT) && !c.check(token.RBRACE) {
			c.statement()
		}
		exitJumps = append(exitJumps, c.emitJump(JUMP))

		c.patchJump(next)
		c.emitOp(POP) // pop the comparison result (false path); switch value survives
	}

	if c.match(token.DEFAULT) {
		c.consume(token.COLON, "Expect ':' after 'default'.")
		for !c.check(token.RBRACE) {
			c.statement()
		}
	}

	// Shared fall-through pop of the residual switch value: reached only by
	// the path(s) that never matched a case (or ran default), since every
	// matched case already consumed it above and jumps past this point.
	c.emitOp(POP)
	for _, jmp := range exitJumps {
		c.patchJump(jmp)
	}

	c.consume(token.RBRACE, "Expect '}' after switch body.")
}

func (c *Compiler) breakStatement() {
	if len(c.fs.loops) == 0 {
		c.error("Can't use 'break' outside of a loop.")
		c.consume(token.SEMI, "Expect ';' after 'break'.")
		return
	}
	loop := c.fs.loops[len(c.fs.loops)-1]
	c.discardLocalsTo(loop.scopeDepthEntry)
	jmp := c.emitJump(JUMP)
	loop.breaks = append(loop.breaks, jmp)
	c.consume(token.SEMI, "Expect ';' after 'break'.")
}

func (c *Compiler) continueStatement() {
	if len(c.fs.loops) == 0 {
		c.error("Can't use 'continue' outside of a loop.")
		c.consume(token.SEMI, "Expect ';' after 'continue'.")
		return
	}
	loop := c.fs.loops[len(c.fs.loops)-1]
	c.discardLocalsTo(loop.scopeDepthEntry)
	c.emitLoop(loop.start)
	c.consume(token.SEMI, "Expect ';' after 'continue'.")
}

func (c *Compiler) returnStatement() {
	if c.match(token.SEMI) {
		c.emitReturn()
		return
	}
	if c.fs.kind == TypeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMI, "Expect ';' after return value.")
	c.emitOp(RETURN)
}

// --- expressions (Pratt parser) ---

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[token.Kind]parseRule

func (c *Compiler) expression() { c.parsePrecedence(PrecAssignment) }

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	rule := rules[c.previous.Kind]
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := prec <= PrecAssignment
	rule.prefix(c, canAssign)

	for prec <= rules[c.current.Kind].precedence {
		c.advance()
		infix := rules[c.previous.Kind].infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.error("Invalid assignment target.")
	}
}

func parseNumber(c *Compiler, _ bool) {
	text := c.previous.Lexeme
	var f float64
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		n, _ := strconv.ParseInt(text[2:], 16, 64)
		f = float64(n)
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		n, _ := strconv.ParseInt(text[2:], 2, 64)
		f = float64(n)
	case strings.HasPrefix(text, "0o") || strings.HasPrefix(text, "0O"):
		n, _ := strconv.ParseInt(text[2:], 8, 64)
		f = float64(n)
	default:
		f, _ = strconv.ParseFloat(text, 64)
	}
	c.emitConstant(value.Number(f))
}

func parseString(c *Compiler, _ bool) {
	c.emitConstant(value.Obj(c.interner.Intern(c.previous.Lexeme)))
}

func parseLiteral(c *Compiler, _ bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(FALSE)
	case token.TRUE:
		c.emitOp(TRUE)
	case token.NIL:
		c.emitOp(NIL)
	}
}

func parseGrouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func parseUnary(c *Compiler, _ bool) {
	opTok := c.previous.Kind
	c.parsePrecedence(PrecUnary)
	switch opTok {
	case token.BANG:
		c.emitOp(NOT)
	case token.MINUS:
		c.emitOp(NEGATE)
	}
}

var binaryOps = map[token.Kind]OpCode{
	token.PLUS:    ADD,
	token.MINUS:   SUB,
	token.STAR:    MUL,
	token.SLASH:   DIV,
	token.PERCENT: MOD,
	token.AMP:     BITWISE_AND,
	token.PIPE:    BITWISE_OR,
	token.CARET:   BITWISE_XOR,
	token.SHL:     SHIFT_LEFT,
	token.SHR:     SHIFT_RIGHT,
	token.EQ_EQ:   EQUAL,
	token.GT:      GREATER,
	token.LT:      LESS,
}

func parseBinary(c *Compiler, _ bool) {
	opTok := c.previous.Kind
	rule := rules[opTok]
	c.parsePrecedence(rule.precedence + 1)

	switch opTok {
	case token.BANG_EQ:
		c.emitOp(EQUAL)
		c.emitOp(NOT)
	case token.GT_EQ:
		c.emitOp(LESS)
		c.emitOp(NOT)
	case token.LT_EQ:
		c.emitOp(GREATER)
		c.emitOp(NOT)
	default:
		if op, ok := binaryOps[opTok]; ok {
			c.emitOp(op)
		}
	}
}

func parseAnd(c *Compiler, _ bool) {
	endJump := c.emitJump(JUMP_IF_FALSE)
	c.emitOp(POP)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func parseOr(c *Compiler, _ bool) {
	elseJump := c.emitJump(JUMP_IF_FALSE)
	endJump := c.emitJump(JUMP)
	c.patchJump(elseJump)
	c.emitOp(POP)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

// compoundOps maps the `+= -= *= /=` tokens to the binary opcode used to
// desugar them (§4.2's assignment sugar).
var compoundOps = map[token.Kind]OpCode{
	token.PLUS_EQ:  ADD,
	token.MINUS_EQ: SUB,
	token.STAR_EQ:  MUL,
	token.SLASH_EQ: DIV,
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

// namedVariable resolves name to a local, upvalue, or global slot and emits
// either a plain read, a `=` write, or a `get; expr; op; set` compound
// assignment, per §4.2.
func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp OpCode
	var arg byte

	if slot := c.fs.resolveLocal(c, name); slot != -1 {
		getOp, setOp, arg = GET_LOCAL, SET_LOCAL, byte(slot)
	} else if slot := c.fs.resolveUpvalue(c, name); slot != -1 {
		getOp, setOp, arg = GET_UPVALUE, SET_UPVALUE, byte(slot)
	} else {
		arg = c.identifierConstant(name)
		getOp, setOp = GET_GLOBAL, SET_GLOBAL
	}

	_, isCompound := compoundOps[c.current.Kind]
	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitOpByte(setOp, arg)
	case canAssign && isCompound:
		c.compoundAssign(getOp, setOp, arg)
	default:
		c.emitOpByte(getOp, arg)
	}
}

// compoundAssign emits `get arg; <rhs expr>; op; set arg` for whichever of
// += -= *= /= is current, consuming that token first.
func (c *Compiler) compoundAssign(getOp, setOp OpCode, arg byte) {
	opTok := c.current.Kind
	op, ok := compoundOps[opTok]
	if !ok {
		c.emitOpByte(getOp, arg)
		return
	}
	c.advance() // consume the += / -= / *= // /=
	c.emitOpByte(getOp, arg)
	c.expression()
	c.emitOp(op)
	c.emitOpByte(setOp, arg)
}

func parseDot(c *Compiler, canAssign bool) {
	c.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitOpByte(SET_PROPERTY, name)
	case canAssign && compoundOps[c.current.Kind] != 0:
		op := compoundOps[c.current.Kind]
		c.advance()
		c.emitOp(DUP)
		c.emitOpByte(GET_PROPERTY, name)
		c.expression()
		c.emitOp(op)
		c.emitOpByte(SET_PROPERTY, name)
	case c.match(token.LPAREN):
		argCount := c.argumentList()
		c.emitOpByte(INVOKE, name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(GET_PROPERTY, name)
	}
}

func parseIndex(c *Compiler, canAssign bool) {
	c.expression()
	c.consume(token.RBRACK, "Expect ']' after index.")
	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOp(SET_INDEX)
	} else {
		c.emitOp(INDEX)
	}
}

func (c *Compiler) argumentList() byte {
	var count int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(count)
}

func parseCall(c *Compiler, _ bool) {
	argCount := c.argumentList()
	c.emitOpByte(CALL, argCount)
}

func parseThis(c *Compiler, _ bool) {
	if c.cs == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func parseSuper(c *Compiler, _ bool) {
	if c.cs == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.cs.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}
	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENT, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(syntheticToken("this"), false)
	if c.match(token.LPAREN) {
		argCount := c.argumentList()
		c.namedVariable(syntheticToken("super"), false)
		c.emitOpByte(SUPER_INVOKE, name)
		c.emitByte(argCount)
	} else {
		c.namedVariable(syntheticToken("super"), false)
		c.emitOpByte(GET_SUPER, name)
	}
}

func parseArrayLiteral(c *Compiler, _ bool) {
	var count int
	if !c.check(token.RBRACK) {
		for {
			c.expression()
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RBRACK, "Expect ']' after array elements.")
	c.emitOpByte(SET_ARRAY, byte(count))
}

func parseTableLiteral(c *Compiler, _ bool) {
	var count int
	if !c.check(token.RBRACE) {
		for {
			c.expression()
			c.consume(token.COLON, "Expect ':' after table key.")
			c.expression()
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RBRACE, "Expect '}' after table literal.")
	c.emitOpByte(SET_TABLE, byte(count))
}

func init() {
	rules = map[token.Kind]parseRule{
		token.LPAREN:   {parseGrouping, parseCall, PrecCall},
		token.LBRACK:   {parseArrayLiteral, parseIndex, PrecCall},
		token.LBRACE:   {parseTableLiteral, nil, PrecNone},
		token.DOT:      {nil, parseDot, PrecCall},
		token.MINUS:    {parseUnary, parseBinary, PrecTerm},
		token.PLUS:     {nil, parseBinary, PrecTerm},
		token.SLASH:    {nil, parseBinary, PrecFactor},
		token.STAR:     {nil, parseBinary, PrecFactor},
		token.PERCENT:  {nil, parseBinary, PrecFactor},
		token.AMP:      {nil, parseBinary, PrecFactor},
		token.PIPE:     {nil, parseBinary, PrecFactor},
		token.CARET:    {nil, parseBinary, PrecFactor},
		token.SHL:      {nil, parseBinary, PrecFactor},
		token.SHR:      {nil, parseBinary, PrecFactor},
		token.BANG:     {parseUnary, nil, PrecNone},
		token.BANG_EQ:  {nil, parseBinary, PrecEquality},
		token.EQ_EQ:    {nil, parseBinary, PrecEquality},
		token.GT:       {nil, parseBinary, PrecComparison},
		token.GT_EQ:    {nil, parseBinary, PrecComparison},
		token.LT:       {nil, parseBinary, PrecComparison},
		token.LT_EQ:    {nil, parseBinary, PrecComparison},
		token.IDENT:    {func(c *Compiler, canAssign bool) { c.variable(canAssign) }, nil, PrecNone},
		token.STRING:   {parseString, nil, PrecNone},
		token.NUMBER:   {parseNumber, nil, PrecNone},
		token.AND:      {nil, parseAnd, PrecAnd},
		token.OR:       {nil, parseOr, PrecOr},
		token.FALSE:    {parseLiteral, nil, PrecNone},
		token.TRUE:     {parseLiteral, nil, PrecNone},
		token.NIL:      {parseLiteral, nil, PrecNone},
		token.THIS:     {parseThis, nil, PrecNone},
		token.SUPER:    {parseSuper, nil, PrecNone},
	}
}
