package assembler

// Instrumentation runs before user code inside the sandbox. It posts
// console-clear once, then mirrors console.log/warn/error to the parent
// window as relay messages while keeping the original console behaviour, and
// reports uncaught errors with their line number.
const Instrumentation = `(function () {
  var originalLog = console.log;
  var originalWarn = console.warn;
  var originalError = console.error;

  function stringify(arg) {
    if (typeof arg === 'object') {
      try {
        return JSON.stringify(arg);
      } catch (e) {
        return String(arg);
      }
    }
    return String(arg);
  }

  function format(args) {
    var parts = [];
    for (var i = 0; i < args.length; i++) {
      parts.push(stringify(args[i]));
    }
    return parts.join(' ');
  }

  function relay(type, data) {
    var message = { type: type };
    if (data !== undefined) {
      message.data = data;
    }
    window.parent.postMessage(message, '*');
  }

  relay('console-clear');

  console.log = function () {
    originalLog.apply(console, arguments);
    relay('console-log', format(arguments));
  };

  console.warn = function () {
    originalWarn.apply(console, arguments);
    relay('console-warn', format(arguments));
  };

  console.error = function () {
    originalError.apply(console, arguments);
    relay('console-error', format(arguments));
  };

  window.addEventListener('error', function (e) {
    console.error('JavaScript Error:', e.message, 'at line', e.lineno);
  });
})();
`
